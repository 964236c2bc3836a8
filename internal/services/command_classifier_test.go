package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"concierge/internal/models"
)

func newTestClassifier(store *fakeUserStore, delivery *fakeDeliverer, calendar *fakeCalendar) *CommandClassifier {
	return NewCommandClassifier(store, delivery, testCatalog(), calendar)
}

func TestTryHandleCommand_LanguageSwitchNormalization(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"uppercase", "/LANG EN"},
		{"lowercase", "/lang en"},
		{"extra whitespace", "  /lang   en  "},
		{"language name", "/lang english"},
		{"alias", "/lang eng"},
		{"trailing tokens ignored", "/lang en please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUser("user-1", "John", "j@x.com")
			user.LanguageCode = "es"
			store := newFakeUserStore(user)
			delivery := &fakeDeliverer{}
			classifier := newTestClassifier(store, delivery, &fakeCalendar{})

			handled, err := classifier.TryHandleCommand(context.Background(), user, tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !handled {
				t.Fatal("expected command to be handled")
			}
			if len(store.languageCalls) != 1 || store.languageCalls[0] != "user-1:en" {
				t.Errorf("expected language persisted as en, got %v", store.languageCalls)
			}
			if user.LanguageCode != "en" {
				t.Errorf("expected in-memory user updated, got %s", user.LanguageCode)
			}
			if len(delivery.sent) != 1 {
				t.Fatalf("expected one confirmation, got %d", len(delivery.sent))
			}
		})
	}
}

func TestTryHandleCommand_LanguageWithoutArgumentFallsThrough(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	store := newFakeUserStore(user)
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(store, delivery, &fakeCalendar{})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/lang")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Error("bare /lang must not be treated as a handled command")
	}
	if len(delivery.sent) != 0 || len(store.languageCalls) != 0 {
		t.Error("falling through must not produce side effects")
	}
}

func TestTryHandleCommand_UnknownLanguageNormalizesToDefault(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	store := newFakeUserStore(user)
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(store, delivery, &fakeCalendar{})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/lang klingon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatal("expected command to be handled")
	}
	// Unknown codes normalize to the default language instead of failing.
	if len(store.languageCalls) != 1 || store.languageCalls[0] != "user-1:es" {
		t.Errorf("expected default language persisted, got %v", store.languageCalls)
	}
}

func TestTryHandleCommand_Help(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{})

	for _, text := range []string{"/help", "/AYUDA", " /help "} {
		handled, err := classifier.TryHandleCommand(context.Background(), user, text)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if !handled {
			t.Errorf("expected %q to be handled", text)
		}
	}

	// Exact match only: trailing words are not the help command.
	handled, err := classifier.TryHandleCommand(context.Background(), user, "/help me out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Error("/help with arguments must not match the help command")
	}
}

func TestTryHandleCommand_UnknownCommandFallsThrough(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Error("unrecognized commands must fall through")
	}
	if len(delivery.sent) != 0 {
		t.Error("falling through must not send anything")
	}
}

func TestTryHandleCommand_AvailabilityRendersAtMostFive(t *testing.T) {
	var slots []models.CalendarSlot
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		slots = append(slots, models.CalendarSlot{
			Start:   start,
			End:     start.Add(time.Hour),
			Display: start.Format("Mon 15:04"),
		})
	}

	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	calendar := &fakeCalendar{slots: slots}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, calendar)

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/slots")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatal("expected /slots to be handled")
	}
	if calendar.calls != 1 {
		t.Errorf("expected one calendar query, got %d", calendar.calls)
	}

	lines := strings.Split(delivery.sent[0].text, "\n")
	if len(lines) != 6 { // header + 5 slots
		t.Errorf("expected header plus 5 slot lines, got %d lines:\n%s", len(lines), delivery.sent[0].text)
	}
}

func TestTryHandleCommand_AvailabilityEmpty(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/slots")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatal("expected /slots to be handled")
	}
	if !strings.Contains(delivery.sent[0].text, "no slots") {
		t.Errorf("expected the no-slots copy, got %q", delivery.sent[0].text)
	}
}

func TestTryHandleCommand_AvailabilityErrorPropagates(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{failErr: errBoom})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/slots")
	if !handled {
		t.Error("the command was recognized even though it failed")
	}
	if err == nil {
		t.Error("calendar collaborator errors must propagate")
	}
}

func TestTryHandleCommand_BookingHelp(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{})

	handled, err := classifier.TryHandleCommand(context.Background(), user, "/book tomorrow at 9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatal("expected /book to be handled by prefix")
	}
	if !strings.Contains(delivery.sent[0].text, "/slots") {
		t.Errorf("booking help should point back to availability, got %q", delivery.sent[0].text)
	}
}

func TestTryHandleCommand_PlainTextIsNotACommand(t *testing.T) {
	user := testUser("user-1", "John", "j@x.com")
	delivery := &fakeDeliverer{}
	classifier := newTestClassifier(newFakeUserStore(user), delivery, &fakeCalendar{})

	for _, text := range []string{"hello", "what can you do", ""} {
		handled, err := classifier.TryHandleCommand(context.Background(), user, text)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if handled {
			t.Errorf("%q must not be a command", text)
		}
	}
}
