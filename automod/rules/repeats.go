package rules

import (
	"strings"

	"github.com/parlorchat/guardian/automod/engine"
)

var _ engine.MessageRuleFunc = RepeatedCharsRule
var _ engine.MessageRuleFunc = RepeatedWordsRule

// RepeatedCharsRule blocks messages containing any character repeated
// consecutively more than the tenant's max_repeated_chars. Disabled when the
// limit is zero.
func RepeatedCharsRule(c *engine.MessageContext) error {
	max := c.Policy.MaxRepeatedChars
	if max <= 0 {
		return nil
	}
	var prev rune
	run := 0
	for _, r := range c.Message.Text {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run > max {
			c.Block(engine.ReasonRepeatedChars)
			return nil
		}
	}
	return nil
}

// RepeatedWordsRule blocks messages where any single word (case-insensitive,
// whitespace-split) occurs more than the tenant's max_repeated_words.
// Disabled when the limit is zero.
func RepeatedWordsRule(c *engine.MessageContext) error {
	max := c.Policy.MaxRepeatedWords
	if max <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(c.Message.Text)) {
		counts[w]++
		if counts[w] > max {
			c.Block(engine.ReasonRepeatedWords)
			return nil
		}
	}
	return nil
}
