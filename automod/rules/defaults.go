package rules

// Global fallback rule set, applied to tenants which have not configured
// their own keyword or pattern lists.

var DefaultKeywords = []string{
	"spam", "scam", "phishing", "free nitro", "giveaway", "discord.gg",
	"invite", "buy now", "click here", "subscribe", "adult", "nsfw",
	"crypto", "bitcoin", "porn", "sex", "nude", "robux", "nitro",
	"airdrop", "token", "password", "login", "credit card", "paypal",
	"venmo", "cashapp", "gift", "prize", "winner", "claim", "investment",
	"pump", "dump",
}

var DefaultPatterns = []string{
	`https?://\S+`,
	`\b(spam|advertisement|link|buy|free|click here|subscribe)\b`,
	`discord\.gg/\S+`,
	`<@!?\d{17,20}>`,
}
