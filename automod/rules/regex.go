package rules

import (
	"regexp"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/parlorchat/guardian/automod/engine"
)

var _ engine.MessageRuleFunc = RegexRule

// compiled-pattern cache, shared across tenants. A nil entry marks a pattern
// which failed to compile, so the failure is only logged once.
var regexCache = xsync.NewMapOf[string, *regexp.Regexp]()

func compilePattern(c *engine.MessageContext, pattern string) *regexp.Regexp {
	re, ok := regexCache.Load(pattern)
	if ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.Logger.Warn("skipping invalid regex pattern", "pattern", pattern, "err", err)
		re = nil
	}
	regexCache.Store(pattern, re)
	return re
}

// RegexRule matches message text against the tenant's configured patterns,
// falling back to DefaultPatterns. Invalid patterns are skipped, never
// aborting classification.
func RegexRule(c *engine.MessageContext) error {
	patterns := c.Policy.RegexPatterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	matched := false
	for _, pattern := range patterns {
		re := compilePattern(c, pattern)
		if re == nil {
			continue
		}
		if re.MatchString(c.Message.Text) {
			matched = true
			c.AddMatchedPattern(pattern)
		}
	}
	if matched {
		c.Block(engine.ReasonRegex)
	}
	return nil
}
