package rules

import (
	"regexp"

	"github.com/parlorchat/guardian/automod/engine"
)

var _ engine.MessageRuleFunc = InviteLinkRule

var inviteRegex = regexp.MustCompile(`(?i)\b(discord\.gg|discord\.com/invite|discordapp\.com/invite)/\S+`)

// InviteLinkRule blocks chat invite links, when the tenant has block_invites
// enabled.
func InviteLinkRule(c *engine.MessageContext) error {
	if !c.Policy.BlockInvites {
		return nil
	}
	if inviteRegex.MatchString(c.Message.Text) {
		c.Block(engine.ReasonInviteLink)
	}
	return nil
}
