package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parlorchat/guardian/automod/engine"
	"github.com/parlorchat/guardian/automod/policystore"
)

func classify(t *testing.T, policy policystore.TenantPolicy, text string) engine.Verdict {
	t.Helper()
	eng, _ := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	verdict, err := eng.Classify(context.Background(), policy, engine.MessageEvent{
		TenantID: "tenant1",
		AuthorID: "user1",
		Text:     text,
	})
	assert.NoError(t, err)
	return verdict
}

func TestCleanText(t *testing.T) {
	assert := assert.New(t)

	verdict := classify(t, policystore.Default(), "good morning everyone")
	assert.False(verdict.Blocked)
	assert.Equal(engine.ReasonNone, verdict.Reason)
	assert.Empty(verdict.MatchedKeywords)
	assert.Empty(verdict.MatchedPatterns)
}

func TestRegexWinsOverKeyword(t *testing.T) {
	assert := assert.New(t)

	// matches both URL/invite patterns and the "discord.gg" keyword; regex
	// runs first so it owns the reason, keyword evidence still collected
	verdict := classify(t, policystore.Default(), "join now http://discord.gg/abc")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonRegex, verdict.Reason)
	assert.Contains(verdict.MatchedPatterns, `https?://\S+`)
	assert.Contains(verdict.MatchedPatterns, `discord\.gg/\S+`)
	assert.Contains(verdict.MatchedKeywords, "discord.gg")
}

func TestKeywordFallbackList(t *testing.T) {
	assert := assert.New(t)

	verdict := classify(t, policystore.Default(), "that's a SCAM")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonKeyword, verdict.Reason)
	assert.Equal([]string{"scam"}, verdict.MatchedKeywords)
}

func TestTenantKeywordsReplaceDefaults(t *testing.T) {
	assert := assert.New(t)

	policy := policystore.Default()
	policy.BlockedKeywords = []string{"pineapple"}

	// default keyword, but the tenant configured their own list
	verdict := classify(t, policy, "that's a scam")
	assert.False(verdict.Blocked)

	verdict = classify(t, policy, "pineapple on pizza")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonKeyword, verdict.Reason)
}

func TestInvalidPatternSkipped(t *testing.T) {
	assert := assert.New(t)

	policy := policystore.Default()
	// backreferences don't compile; the valid pattern must still run
	policy.RegexPatterns = []string{`(.)\1{3,}`, `badword`}

	verdict := classify(t, policy, "such a badword")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonRegex, verdict.Reason)
	assert.Equal([]string{"badword"}, verdict.MatchedPatterns)
}

func TestRepeatedChars(t *testing.T) {
	assert := assert.New(t)

	policy := policystore.Default()
	verdict := classify(t, policy, "heyyyyyyy")
	assert.False(verdict.Blocked, "disabled at zero")

	policy.MaxRepeatedChars = 3
	verdict = classify(t, policy, "heyyyyyyy")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonRepeatedChars, verdict.Reason)

	verdict = classify(t, policy, "heyyy")
	assert.False(verdict.Blocked, "exactly at the limit is allowed")
}

func TestRepeatedWords(t *testing.T) {
	assert := assert.New(t)

	policy := policystore.Default()
	policy.MaxRepeatedWords = 2
	verdict := classify(t, policy, "hello hello hello")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonRepeatedWords, verdict.Reason)

	verdict = classify(t, policy, "hello Hello there there")
	assert.False(verdict.Blocked)
}

func TestInviteLinks(t *testing.T) {
	assert := assert.New(t)

	// neutralize the earlier rules so the invite rule owns the reason
	policy := policystore.Default()
	policy.BlockedKeywords = []string{"zzznope"}
	policy.RegexPatterns = []string{`zzznope`}

	verdict := classify(t, policy, "come hang out at discord.gg/abc123")
	assert.True(verdict.Blocked)
	assert.Equal(engine.ReasonInviteLink, verdict.Reason)

	policy.BlockInvites = false
	verdict = classify(t, policy, "come hang out at discord.gg/abc123")
	assert.False(verdict.Blocked)
}

func TestConcurrentClassification(t *testing.T) {
	assert := assert.New(t)

	eng, _ := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	policy := policystore.Default()
	msg := engine.MessageEvent{TenantID: "tenant1", AuthorID: "user1", Text: "join now http://discord.gg/abc"}

	var wg sync.WaitGroup
	results := make([]engine.Verdict, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := eng.Classify(context.Background(), policy, msg)
			assert.NoError(err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.True(v.Blocked)
		assert.Equal(engine.ReasonRegex, v.Reason)
	}
}
