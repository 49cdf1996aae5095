package engine

// A single content rule. Rules read the message and policy from the context
// and record effects on it; they must be pure computation, never blocking.
type MessageRuleFunc func(c *MessageContext) error

// Holds the ordered set of rules to run against each message. Order is
// significant: the first rule to block a message determines the verdict
// reason.
type RuleSet struct {
	MessageRules []MessageRuleFunc
}

// CallMessageRules dispatches all rules in order. Every rule runs even after
// a block, so evidence from later rules is still collected.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}
