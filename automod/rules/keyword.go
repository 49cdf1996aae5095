package rules

import (
	"strings"

	"github.com/parlorchat/guardian/automod/engine"
)

var _ engine.MessageRuleFunc = KeywordRule

// KeywordRule does case-insensitive substring matching against the tenant's
// blocked keyword list, falling back to DefaultKeywords. Every matching
// keyword is recorded as evidence, even when an earlier rule already blocked
// the message.
func KeywordRule(c *engine.MessageContext) error {
	keywords := c.Policy.BlockedKeywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	text := strings.ToLower(c.Message.Text)
	matched := false
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = true
			c.AddMatchedKeyword(kw)
		}
	}
	if matched {
		c.Block(engine.ReasonKeyword)
	}
	return nil
}
