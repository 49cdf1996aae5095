package engine

// Verdict reason values. The first rule to fire (in ruleset order) wins the
// reason; keyword evidence is collected regardless of which reason wins.
const (
	ReasonNone          = ""
	ReasonSpam          = "spam"
	ReasonKeyword       = "keyword"
	ReasonRegex         = "regex"
	ReasonRepeatedChars = "repeated_chars"
	ReasonInviteLink    = "invite_link"
	ReasonRepeatedWords = "repeated_words"
)

// Mutable container for the side-effects of rule execution against one
// message. Collected during rule execution, projected to a Verdict at the
// end.
type Effects struct {
	Blocked         bool
	Reason          string
	MatchedKeywords []string
	MatchedPatterns []string
}

// Block marks the message blocked. The reason sticks only if no earlier rule
// already claimed it.
func (e *Effects) Block(reason string) {
	e.Blocked = true
	if e.Reason == ReasonNone {
		e.Reason = reason
	}
}

func (e *Effects) AddMatchedKeyword(kw string) {
	e.MatchedKeywords = append(e.MatchedKeywords, kw)
}

func (e *Effects) AddMatchedPattern(pattern string) {
	e.MatchedPatterns = append(e.MatchedPatterns, pattern)
}

// Verdict is the transient moderation decision for one message. Produced per
// message and consumed immediately; only its audit projection is persisted.
type Verdict struct {
	Blocked         bool
	Reason          string
	MatchedKeywords []string
	MatchedPatterns []string
}

func (e *Effects) Verdict() Verdict {
	return Verdict{
		Blocked:         e.Blocked,
		Reason:          e.Reason,
		MatchedKeywords: e.MatchedKeywords,
		MatchedPatterns: e.MatchedPatterns,
	}
}
