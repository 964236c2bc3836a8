package services

import (
	"log"
	"strings"

	"concierge/internal/models"
)

// Token count at or below which only minimal context is spliced in.
const minimalContextTokenLimit = 3

// Bare words that mark a message as command-shaped even without the slash.
var bareCommandWords = []string{"help", "ayuda"}

// ContextBuilder decides whether and how much of the user's profile to
// splice into a conversational prompt.
type ContextBuilder struct {
	locales Localizer
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(locales Localizer) *ContextBuilder {
	return &ContextBuilder{locales: locales}
}

// ShouldIncludeContext reports false for command-shaped text (a command
// marker prefix or a bare help keyword) and true otherwise.
func (b *ContextBuilder) ShouldIncludeContext(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return false
	}
	if strings.HasPrefix(norm, "/") {
		return false
	}
	for _, word := range bareCommandWords {
		if norm == word {
			return false
		}
	}
	return true
}

// DetermineLevel picks the context level for a message: Full when it is a
// personal question about the user's own profile, Minimal for very short
// messages, Standard otherwise.
func (b *ContextBuilder) DetermineLevel(text, languageCode string) models.ContextLevel {
	norm := strings.ToLower(strings.TrimSpace(text))

	for _, phrase := range b.locales.PersonalQuestionTriggers(languageCode) {
		if strings.Contains(norm, strings.ToLower(phrase)) {
			return models.ContextLevelFull
		}
	}

	if len(strings.Fields(norm)) <= minimalContextTokenLimit {
		return models.ContextLevelMinimal
	}
	return models.ContextLevelStandard
}

// FormatContext fills the localized template for the level with the
// matching profile fields, followed by the original message. Never fails:
// any catalog miss falls back to the unmodified original message.
func (b *ContextBuilder) FormatContext(user *models.User, text string, level models.ContextLevel) string {
	var (
		formatted string
		err       error
	)

	switch level {
	case models.ContextLevelMinimal:
		formatted, err = b.locales.GetMessage("context.minimal", user.LanguageCode,
			user.Name, text)
	case models.ContextLevelStandard:
		formatted, err = b.locales.GetMessage("context.standard", user.LanguageCode,
			user.Name, user.Email, user.LanguageCode, text)
	case models.ContextLevelFull:
		formatted, err = b.locales.GetMessage("context.full", user.LanguageCode,
			user.Name, user.Email, user.LanguageCode,
			user.CreatedAt.Format("2006-01-02"), user.Timezone, text)
	default:
		return text
	}

	if err != nil {
		log.Printf("⚠️ [CONTEXT] Template lookup failed (level %s), sending message without context: %v", level, err)
		return text
	}
	return formatted
}
