package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegistrationState classifies how far a user has progressed through
// onboarding. It is derived from the stored profile fields once per message
// turn and threaded through; components never re-derive it mid-turn.
type RegistrationState int

const (
	// RegistrationStateNew means no name has been captured yet.
	RegistrationStateNew RegistrationState = iota
	// RegistrationStateHasName means a name is set but no email.
	RegistrationStateHasName
	// RegistrationStateComplete means both name and email are set.
	RegistrationStateComplete
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationStateNew:
		return "new"
	case RegistrationStateHasName:
		return "has_name"
	case RegistrationStateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// User represents a chat contact and their onboarding profile
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identifier   string             `bson:"identifier" json:"identifier"` // Stable external contact ID (phone handle)
	SessionID    string             `bson:"sessionId,omitempty" json:"session_id,omitempty"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	LanguageCode string             `bson:"languageCode" json:"language_code"`
	Timezone     string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// IsRegistered reports whether onboarding is finished: both name and email
// present and non-blank.
func (u *User) IsRegistered() bool {
	return strings.TrimSpace(u.Name) != "" && strings.TrimSpace(u.Email) != ""
}

// RegistrationStateOf computes the explicit onboarding state from the
// profile fields. Monotonic in practice: the registration flow never clears
// name or email once set.
func (u *User) RegistrationStateOf() RegistrationState {
	if strings.TrimSpace(u.Name) == "" {
		return RegistrationStateNew
	}
	if strings.TrimSpace(u.Email) == "" {
		return RegistrationStateHasName
	}
	return RegistrationStateComplete
}
