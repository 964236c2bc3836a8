package services

import (
	"context"
	"time"

	"concierge/internal/models"
)

// UserStore is the persistence capability the message pipeline depends on.
type UserStore interface {
	// GetUserByIdentifier returns the user for a stable external contact
	// identifier, or (nil, nil) when no such user exists.
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// UpsertUser creates or updates a user and returns the stored document.
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	// UpdateRegistration sets name and email in a single write.
	UpdateRegistration(ctx context.Context, identifier, name, email string) error
	// UpdateLanguage sets the user's language code.
	UpdateLanguage(ctx context.Context, identifier, languageCode string) error
}

// ReplyGenerator is the conversational reply capability. Session identifiers
// are opaque handles owned by the implementation.
type ReplyGenerator interface {
	// CreateOrGetSession resolves the conversational session for a contact,
	// creating one if needed. Idempotent.
	CreateOrGetSession(ctx context.Context, identifier string) (string, error)
	GetReply(ctx context.Context, sessionID, text string) (string, error)
	GetReplyWithContext(ctx context.Context, sessionID, contextualText string) (string, error)
	// Complete runs a one-shot stateless completion, outside any session.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Deliverer sends one outbound message to a contact.
type Deliverer interface {
	Send(ctx context.Context, recipientID, text string) error
}

// Localizer resolves user-facing copy and language metadata.
type Localizer interface {
	GetMessage(key, languageCode string, params ...string) (string, error)
	IsLanguageSupported(code string) bool
	// Normalize maps a code or language name to a canonical supported code,
	// defaulting unknown input to the system default language.
	Normalize(input string) string
	LanguageName(code string) string
	NameTriggers(languageCode string) []string
	EmailTriggers(languageCode string) []string
	PersonalQuestionTriggers(languageCode string) []string
}

// CalendarProvider exposes bookable availability.
type CalendarProvider interface {
	GetAvailableSlots(ctx context.Context, from, to time.Time) ([]models.CalendarSlot, error)
}
