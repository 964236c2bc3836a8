package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"

	"concierge/internal/models"
)

// Confidence scores per extraction strategy.
const (
	confidencePattern    = 0.9
	confidenceEmailScan  = 0.8
	confidenceGenerative = 0.7
)

// Sentinel responses the generative tier uses to signal "nothing found".
const (
	sentinelNoName  = "NO_NAME_FOUND"
	sentinelNoEmail = "NO_EMAIL_FOUND"
)

const (
	minNameLength = 2
	maxNameLength = 100
)

var (
	// Anchored form validates a full candidate; the unanchored form scans a
	// whole message for anything email-shaped.
	emailExactRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	emailScanRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// GenerativeClient is the subset of the reply generator the extraction
// fallback tier needs: a session-bound call and a stateless completion.
type GenerativeClient interface {
	GetReply(ctx context.Context, sessionID, text string) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// ExtractionService pulls structured profile fields (name, email) out of
// free-text messages. Deterministic pattern rules run first; a generative
// call is the fallback. Extraction never returns a Go error to its callers:
// every failure becomes a Failed result with detail.
type ExtractionService struct {
	llm     GenerativeClient
	locales Localizer
}

// NewExtractionService creates a new extraction service
func NewExtractionService(llm GenerativeClient, locales Localizer) *ExtractionService {
	return &ExtractionService{llm: llm, locales: locales}
}

// ExtractName attempts to pull a person's name from the message.
func (s *ExtractionService) ExtractName(ctx context.Context, req models.ExtractionRequest) models.ExtractionResult {
	for _, phrase := range s.locales.NameTriggers(req.LanguageCode) {
		candidate, ok := remainderAfter(req.Text, phrase)
		if !ok {
			continue
		}
		if validName(candidate) {
			return models.ExtractionResult{
				Value:      candidate,
				Method:     models.ExtractionMethodPattern,
				Confidence: confidencePattern,
			}
		}
	}
	return s.generative(ctx, req, "extraction.name_prompt", sentinelNoName, validName)
}

// ExtractEmail attempts to pull an email address from the message.
func (s *ExtractionService) ExtractEmail(ctx context.Context, req models.ExtractionRequest) models.ExtractionResult {
	sawCandidate := false
	for _, phrase := range s.locales.EmailTriggers(req.LanguageCode) {
		candidate, ok := remainderAfter(req.Text, phrase)
		if !ok {
			continue
		}
		if validEmail(candidate) {
			return models.ExtractionResult{
				Value:      candidate,
				Method:     models.ExtractionMethodPattern,
				Confidence: confidencePattern,
			}
		}
		if candidate != "" {
			sawCandidate = true
		}
	}

	// Secondary deterministic pass: anything email-shaped anywhere in the
	// message, before paying for a generative call.
	if match := emailScanRe.FindString(req.Text); match != "" {
		return models.ExtractionResult{
			Value:      match,
			Method:     models.ExtractionMethodPattern,
			Confidence: confidenceEmailScan,
		}
	}

	res := s.generative(ctx, req, "extraction.email_prompt", sentinelNoEmail, validEmail)
	if !res.Success() && sawCandidate {
		// A trigger phrase introduced a value that failed validation and the
		// fallback found nothing better: report it as malformed, not absent.
		res.Error = models.ExtractionErrorInvalidFormat
	}
	return res
}

// ExtractUserData runs a combined name+email pass over one message. When the
// message looks like it might carry both fields, a single structured
// generative call is tried first; otherwise (or when it yields nothing) the
// per-field extractors run independently.
func (s *ExtractionService) ExtractUserData(ctx context.Context, req models.ExtractionRequest) models.UserDataExtractionResult {
	if mightContainBoth(req.Text) {
		if combined, ok := s.extractCombined(ctx, req); ok {
			return combined
		}
	}
	return models.UserDataExtractionResult{
		Name:  s.ExtractName(ctx, req),
		Email: s.ExtractEmail(ctx, req),
	}
}

// extractCombined issues one two-field structured prompt. Returns ok=false
// when the attempt produced no valid field, so the caller falls back to
// independent extraction.
func (s *ExtractionService) extractCombined(ctx context.Context, req models.ExtractionRequest) (models.UserDataExtractionResult, bool) {
	prompt, err := s.locales.GetMessage("extraction.combined_prompt", req.LanguageCode, req.Text)
	if err != nil {
		return models.UserDataExtractionResult{}, false
	}

	resp, err := s.callGenerative(ctx, req.SessionID, prompt)
	if err != nil {
		log.Printf("⚠️ [EXTRACTION] Combined generative call failed: %v", err)
		return models.UserDataExtractionResult{}, false
	}

	name, email := parseCombinedResponse(resp)

	var result models.UserDataExtractionResult
	if name != "" && validName(name) {
		result.Name = models.ExtractionResult{
			Value:      name,
			Method:     models.ExtractionMethodGenerative,
			Confidence: confidenceGenerative,
		}
	} else {
		result.Name = failedResult("no name in combined extraction")
	}
	if email != "" && validEmail(email) {
		result.Email = models.ExtractionResult{
			Value:      email,
			Method:     models.ExtractionMethodGenerative,
			Confidence: confidenceGenerative,
		}
	} else {
		result.Email = failedResult("no email in combined extraction")
	}

	return result, result.HasAnyData()
}

// generative runs the fallback tier for one field.
func (s *ExtractionService) generative(ctx context.Context, req models.ExtractionRequest, promptKey, sentinel string, valid func(string) bool) models.ExtractionResult {
	prompt, err := s.locales.GetMessage(promptKey, req.LanguageCode, req.Text)
	if err != nil {
		return failedResult(fmt.Sprintf("prompt lookup failed: %v", err))
	}

	resp, err := s.callGenerative(ctx, req.SessionID, prompt)
	if err != nil {
		return failedResult(fmt.Sprintf("generative call failed: %v", err))
	}

	value := strings.TrimSpace(resp)
	if value == "" || strings.EqualFold(value, sentinel) {
		// The model explicitly reported nothing found. A miss, not an error.
		return failedResult("")
	}
	if !valid(value) {
		return models.ExtractionResult{
			Method: models.ExtractionMethodFailed,
			Error:  models.ExtractionErrorInvalidFormat,
		}
	}

	return models.ExtractionResult{
		Value:      value,
		Method:     models.ExtractionMethodGenerative,
		Confidence: confidenceGenerative,
	}
}

// callGenerative prefers a session-bound call for context; on failure it
// retries once statelessly. Without a session it goes stateless directly.
func (s *ExtractionService) callGenerative(ctx context.Context, sessionID, prompt string) (string, error) {
	if sessionID != "" {
		resp, err := s.llm.GetReply(ctx, sessionID, prompt)
		if err == nil {
			return resp, nil
		}
		log.Printf("⚠️ [EXTRACTION] Session-bound call failed, retrying stateless: %v", err)
	}
	return s.llm.Complete(ctx, prompt)
}

func failedResult(detail string) models.ExtractionResult {
	return models.ExtractionResult{
		Method: models.ExtractionMethodFailed,
		Error:  detail,
	}
}

// remainderAfter reports the trimmed remainder of text after a trigger
// phrase, when the message starts with that phrase (case-insensitive).
func remainderAfter(text, phrase string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(phrase) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(phrase)], phrase) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(phrase):]), true
}

// mightContainBoth is the cheap heuristic for "this message may carry a name
// and an email at once": it has an @ and at least 3 tokens.
func mightContainBoth(text string) bool {
	return strings.Contains(text, "@") && len(strings.Fields(text)) >= 3
}

// parseCombinedResponse reads the two-line NAME:/EMAIL: structured answer.
// Sentinel values map to empty strings.
func parseCombinedResponse(resp string) (name, email string) {
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "NAME:"):
			v := strings.TrimSpace(line[len("NAME:"):])
			if !strings.EqualFold(v, sentinelNoName) {
				name = v
			}
		case strings.HasPrefix(upper, "EMAIL:"):
			v := strings.TrimSpace(line[len("EMAIL:"):])
			if !strings.EqualFold(v, sentinelNoEmail) {
				email = v
			}
		}
	}
	return name, email
}

// validName requires a trimmed length within bounds and at least one letter.
func validName(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) < minNameLength || len(value) > maxNameLength {
		return false
	}
	for _, r := range value {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// validEmail requires the whole candidate to be a syntactically valid
// mailbox address.
func validEmail(value string) bool {
	return emailExactRe.MatchString(strings.TrimSpace(value))
}
