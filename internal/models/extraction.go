package models

// ExtractionMethod records which strategy produced an extraction result.
type ExtractionMethod string

const (
	// ExtractionMethodPattern means a deterministic trigger-phrase or regex
	// match produced the value.
	ExtractionMethodPattern ExtractionMethod = "pattern"
	// ExtractionMethodGenerative means the LLM fallback produced the value.
	ExtractionMethodGenerative ExtractionMethod = "generative"
	// ExtractionMethodFailed means no strategy produced a valid value.
	ExtractionMethodFailed ExtractionMethod = "failed"
)

// ExtractionErrorInvalidFormat is the error detail recorded when a candidate
// value was present in the message but failed validation. Callers use it to
// tell "malformed value" apart from "nothing found".
const ExtractionErrorInvalidFormat = "invalid_format"

// ExtractionRequest is the input to a single-field extraction attempt.
type ExtractionRequest struct {
	Text         string // Raw inbound message
	LanguageCode string
	SessionID    string // Optional; when set, the generative tier prefers a session-bound call
}

// ExtractionResult is the outcome of one extraction attempt.
type ExtractionResult struct {
	Value      string
	Method     ExtractionMethod
	Confidence float64
	Error      string // Detail when Method is failed; never surfaced as a Go error
}

// Success reports whether a value was extracted.
func (r ExtractionResult) Success() bool {
	return r.Value != ""
}

// UserDataExtractionResult pairs the name and email extraction outcomes for
// a combined pass over one message.
type UserDataExtractionResult struct {
	Name  ExtractionResult
	Email ExtractionResult
}

// HasAnyData reports whether at least one field was extracted.
func (r UserDataExtractionResult) HasAnyData() bool {
	return r.Name.Success() || r.Email.Success()
}
