package models

// ContextLevel controls how much of the user's profile is spliced into an
// outbound conversational prompt. Levels are ordered from nothing to the
// full profile.
type ContextLevel int

const (
	ContextLevelNone ContextLevel = iota
	ContextLevelMinimal               // name only
	ContextLevelStandard              // name, email, language
	ContextLevelFull                  // name, email, language, registration date, timezone
)

func (l ContextLevel) String() string {
	switch l {
	case ContextLevelNone:
		return "none"
	case ContextLevelMinimal:
		return "minimal"
	case ContextLevelStandard:
		return "standard"
	case ContextLevelFull:
		return "full"
	default:
		return "unknown"
	}
}
