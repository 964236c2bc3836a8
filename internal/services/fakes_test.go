package services

import (
	"context"
	"fmt"
	"time"

	"concierge/internal/locale"
	"concierge/internal/models"
)

// fakeUserStore is an in-memory UserStore that records writes.
type fakeUserStore struct {
	users             map[string]*models.User
	registrationCalls []registrationCall
	languageCalls     []string
	failUpdate        error
}

type registrationCall struct {
	identifier, name, email string
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.Identifier] = u
	}
	return s
}

func (s *fakeUserStore) GetUserByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	u, ok := s.users[identifier]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) UpsertUser(_ context.Context, user *models.User) (*models.User, error) {
	stored, ok := s.users[user.Identifier]
	if !ok {
		copied := *user
		copied.CreatedAt = time.Now()
		copied.UpdatedAt = copied.CreatedAt
		s.users[user.Identifier] = &copied
		result := copied
		return &result, nil
	}
	stored.SessionID = user.SessionID
	stored.Name = user.Name
	stored.Email = user.Email
	stored.LanguageCode = user.LanguageCode
	stored.UpdatedAt = time.Now()
	result := *stored
	return &result, nil
}

func (s *fakeUserStore) UpdateRegistration(_ context.Context, identifier, name, email string) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.registrationCalls = append(s.registrationCalls, registrationCall{identifier, name, email})
	if u, ok := s.users[identifier]; ok {
		u.Name, u.Email = name, email
	}
	return nil
}

func (s *fakeUserStore) UpdateLanguage(_ context.Context, identifier, languageCode string) error {
	s.languageCalls = append(s.languageCalls, identifier+":"+languageCode)
	if u, ok := s.users[identifier]; ok {
		u.LanguageCode = languageCode
	}
	return nil
}

// fakeDeliverer records sent messages.
type fakeDeliverer struct {
	sent    []sentMessage
	failErr error
}

type sentMessage struct {
	recipient, text string
}

func (d *fakeDeliverer) Send(_ context.Context, recipientID, text string) error {
	if d.failErr != nil {
		return d.failErr
	}
	d.sent = append(d.sent, sentMessage{recipientID, text})
	return nil
}

// fakeReplyGenerator scripts the reply-generation collaborator. GetReply
// and GetReplyWithContext answer with reply/replyErr; Complete answers with
// completeResponse/completeErr so tests can drive the session-bound vs
// stateless split in the extraction fallback.
type fakeReplyGenerator struct {
	sessionID        string
	sessionErr       error
	reply            string
	replyErr         error
	completeResponse string
	completeErr      error

	sessionCalls    int
	plainCalls      []string
	contextualCalls []string
	completeCalls   []string
}

func (g *fakeReplyGenerator) CreateOrGetSession(_ context.Context, identifier string) (string, error) {
	g.sessionCalls++
	if g.sessionErr != nil {
		return "", g.sessionErr
	}
	if g.sessionID == "" {
		return "session-1", nil
	}
	return g.sessionID, nil
}

func (g *fakeReplyGenerator) GetReply(_ context.Context, sessionID, text string) (string, error) {
	g.plainCalls = append(g.plainCalls, text)
	if g.replyErr != nil {
		return "", g.replyErr
	}
	return g.reply, nil
}

func (g *fakeReplyGenerator) GetReplyWithContext(_ context.Context, sessionID, contextualText string) (string, error) {
	g.contextualCalls = append(g.contextualCalls, contextualText)
	if g.replyErr != nil {
		return "", g.replyErr
	}
	return g.reply, nil
}

func (g *fakeReplyGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.completeCalls = append(g.completeCalls, prompt)
	if g.completeErr != nil {
		return "", g.completeErr
	}
	return g.completeResponse, nil
}

// fakeCalendar scripts availability responses.
type fakeCalendar struct {
	slots   []models.CalendarSlot
	failErr error
	calls   int
}

func (c *fakeCalendar) GetAvailableSlots(_ context.Context, from, to time.Time) ([]models.CalendarSlot, error) {
	c.calls++
	if c.failErr != nil {
		return nil, c.failErr
	}
	return c.slots, nil
}

// testCatalog builds the English and Spanish catalogs the tests run against.
func testCatalog() *locale.Catalog {
	messages := map[string]string{
		"registration.welcome":         "welcome: what is your name?",
		"registration.greet_with_name": "nice to meet you, {0}! what is your email?",
		"registration.request_email":   "what is your email?",
		"registration.completed":       "all set, {0}!",
		"registration.invalid_email":   "that email looks invalid",
		"help.body":                    "help text",
		"language.changed":             "language changed to {0}",
		"language.unsupported":         "cannot speak {0}",
		"calendar.slots_header":        "next available slots:",
		"calendar.slot_line":           "• {0}",
		"calendar.no_slots":            "no slots available",
		"calendar.booking_help":        "use /slots to see availability",
		"context.minimal":              "[profile name={0}]\n{1}",
		"context.standard":             "[profile name={0} email={1} lang={2}]\n{3}",
		"context.full":                 "[profile name={0} email={1} lang={2} since={3} tz={4}]\n{5}",
		"extraction.name_prompt":       "extract name: {0}",
		"extraction.email_prompt":      "extract email: {0}",
		"extraction.combined_prompt":   "extract both: {0}",
	}

	en := locale.LanguageDefinition{
		Code:                     "en",
		Name:                     "English",
		Aliases:                  []string{"eng"},
		Messages:                 messages,
		NameTriggers:             []string{"name:", "my name is", "i am"},
		EmailTriggers:            []string{"email:", "my email is"},
		PersonalQuestionTriggers: []string{"what is my name", "about me", "who am i"},
	}
	es := locale.LanguageDefinition{
		Code:                     "es",
		Name:                     "Español",
		Aliases:                  []string{"spanish"},
		Messages:                 messages,
		NameTriggers:             []string{"nombre:", "me llamo"},
		EmailTriggers:            []string{"correo:"},
		PersonalQuestionTriggers: []string{"cual es mi nombre"},
	}
	return locale.NewFromFiles(en, es)
}

func testUser(identifier, name, email string) *models.User {
	return &models.User{
		Identifier:   identifier,
		SessionID:    "session-1",
		Name:         name,
		Email:        email,
		LanguageCode: "en",
		CreatedAt:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

var errBoom = fmt.Errorf("boom")
