package engine

import (
	"log/slog"
	"strings"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/automod/windowstore"
	"github.com/parlorchat/guardian/platform"
)

var _ MessageRuleFunc = simpleRule

// blocks any message containing "slur", with keyword evidence
func simpleRule(c *MessageContext) error {
	if strings.Contains(strings.ToLower(c.Message.Text), "slur") {
		c.AddMatchedKeyword("slur")
		c.Block(ReasonKeyword)
	}
	return nil
}

// EngineTestFixture returns an engine wired to in-memory stores and a mock
// platform client, with one simple keyword rule installed. Intentionally
// exported, for use in other packages' tests.
func EngineTestFixture() (*Engine, *platform.MockClient) {
	client := platform.NewMockClient()
	eng := &Engine{
		Logger: slog.Default(),
		Rules: RuleSet{
			MessageRules: []MessageRuleFunc{simpleRule},
		},
		Policies: policystore.NewMemStore(),
		Windows:  windowstore.NewMemStore(),
		Audit:    auditlog.NewMemStore(),
		Client:   client,
	}
	return eng, client
}

// Helper to access the private effects field from a context. Intended for
// use in test code, *not* from rules.
func ExtractEffects(c *MessageContext) Effects {
	return *c.effects
}
