package rules

import (
	"github.com/parlorchat/guardian/automod/engine"
)

// DefaultRules returns the standard content rule set. Order matters: the
// first rule to block a message determines the verdict reason.
func DefaultRules() engine.RuleSet {
	rules := engine.RuleSet{
		MessageRules: []engine.MessageRuleFunc{
			RegexRule,
			KeywordRule,
			RepeatedCharsRule,
			InviteLinkRule,
			RepeatedWordsRule,
		},
	}
	return rules
}
