package services

import (
	"strings"
	"testing"

	"concierge/internal/locale"
	"concierge/internal/models"
)

func TestShouldIncludeContext(t *testing.T) {
	b := NewContextBuilder(testCatalog())

	tests := []struct {
		text string
		want bool
	}{
		{"/help", false},
		{"/lang en", false},
		{"/anything", false},
		{"help", false},
		{"ayuda", false},
		{"How are you?", true},
		{"tell me a joke", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := b.ShouldIncludeContext(tt.text); got != tt.want {
			t.Errorf("ShouldIncludeContext(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetermineLevel(t *testing.T) {
	b := NewContextBuilder(testCatalog())

	tests := []struct {
		name string
		text string
		want models.ContextLevel
	}{
		{"personal question", "hey, what is my name again?", models.ContextLevelFull},
		{"about me", "tell me something about me", models.ContextLevelFull},
		{"short message", "hi there", models.ContextLevelMinimal},
		{"three tokens", "how are you", models.ContextLevelMinimal},
		{"longer message", "can you help me plan a trip to the coast", models.ContextLevelStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.DetermineLevel(tt.text, "en"); got != tt.want {
				t.Errorf("DetermineLevel(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatContext_Levels(t *testing.T) {
	b := NewContextBuilder(testCatalog())
	user := testUser("user-1", "John Doe", "john@example.com")
	user.Timezone = "America/Mexico_City"

	t.Run("minimal carries the name", func(t *testing.T) {
		out := b.FormatContext(user, "hi", models.ContextLevelMinimal)
		if !strings.Contains(out, "John Doe") || !strings.Contains(out, "hi") {
			t.Errorf("unexpected minimal context: %q", out)
		}
		if strings.Contains(out, "john@example.com") {
			t.Error("minimal must not leak the email")
		}
	})

	t.Run("standard adds email and language", func(t *testing.T) {
		out := b.FormatContext(user, "plan my week", models.ContextLevelStandard)
		for _, want := range []string{"John Doe", "john@example.com", "en", "plan my week"} {
			if !strings.Contains(out, want) {
				t.Errorf("standard context missing %q: %q", want, out)
			}
		}
	})

	t.Run("full adds registration date and timezone", func(t *testing.T) {
		out := b.FormatContext(user, "who am i", models.ContextLevelFull)
		for _, want := range []string{"2026-01-15", "America/Mexico_City"} {
			if !strings.Contains(out, want) {
				t.Errorf("full context missing %q: %q", want, out)
			}
		}
	})

	t.Run("none passes the message through", func(t *testing.T) {
		if out := b.FormatContext(user, "hello", models.ContextLevelNone); out != "hello" {
			t.Errorf("expected passthrough, got %q", out)
		}
	})
}

func TestFormatContext_LookupFailureReturnsOriginal(t *testing.T) {
	// A catalog without the context templates forces the lookup to fail.
	bare := locale.NewFromFiles(locale.LanguageDefinition{
		Code: "en", Name: "English", Messages: map[string]string{},
	})
	b := NewContextBuilder(bare)
	user := testUser("user-1", "John Doe", "john@example.com")

	original := "what is my name?"
	for _, level := range []models.ContextLevel{
		models.ContextLevelMinimal, models.ContextLevelStandard, models.ContextLevelFull,
	} {
		if out := b.FormatContext(user, original, level); out != original {
			t.Errorf("level %s: expected the unmodified original message, got %q", level, out)
		}
	}
}
