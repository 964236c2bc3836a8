package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"concierge/internal/models"
)

// Control command keywords, native + localized alias each.
var (
	languageKeywords = []string{"/lang", "/idioma"}
	helpKeywords     = []string{"/help", "/ayuda"}
	slotsKeywords    = []string{"/slots", "/horarios"}
	bookingKeywords  = []string{"/book", "/reservar"}
)

// Availability look-ahead window and render cap for the slots command.
const (
	slotsWindowStart = 24 * time.Hour
	slotsWindowDays  = 7
	maxRenderedSlots = 5
)

// CommandClassifier matches normalized text against the fixed, ordered set
// of control commands. A match performs its side effects in-line and
// short-circuits the rest of the pipeline, even when the user-facing outcome
// is an error message: recognition and success are independent.
type CommandClassifier struct {
	users    UserStore
	delivery Deliverer
	locales  Localizer
	calendar CalendarProvider
}

// NewCommandClassifier creates a new command classifier
func NewCommandClassifier(users UserStore, delivery Deliverer, locales Localizer, calendar CalendarProvider) *CommandClassifier {
	return &CommandClassifier{
		users:    users,
		delivery: delivery,
		locales:  locales,
		calendar: calendar,
	}
}

// TryHandleCommand evaluates commands in priority order; the first match
// wins. Returns handled=false when the text is not a recognized command, in
// which case no side effect has happened.
func (c *CommandClassifier) TryHandleCommand(ctx context.Context, user *models.User, text string) (bool, error) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return false, nil
	}

	fields := strings.Fields(norm)

	if matchesAny(fields[0], languageKeywords) {
		if len(fields) < 2 {
			// No argument: treat as "not a command" and fall through.
			return false, nil
		}
		return true, c.handleLanguageSwitch(ctx, user, fields[1])
	}

	if len(fields) == 1 && matchesAny(norm, helpKeywords) {
		return true, c.handleHelp(ctx, user)
	}

	if hasAnyPrefix(norm, slotsKeywords) {
		return true, c.handleAvailability(ctx, user)
	}

	if hasAnyPrefix(norm, bookingKeywords) {
		return true, c.handleBookingHelp(ctx, user)
	}

	return false, nil
}

// handleLanguageSwitch normalizes the requested code through the language
// registry (unknown input maps to the default language) and persists it.
// Only the first argument token counts; trailing tokens are ignored.
func (c *CommandClassifier) handleLanguageSwitch(ctx context.Context, user *models.User, arg string) error {
	code := c.locales.Normalize(arg)

	if !c.locales.IsLanguageSupported(code) {
		// Only reachable when the registry normalizes to a code without a
		// catalog, which is a configuration state rather than user input.
		log.Printf("⚠️ [COMMANDS] Normalized language %q is not supported", code)
		msg, err := c.locales.GetMessage("language.unsupported", user.LanguageCode, arg)
		if err != nil {
			return fmt.Errorf("failed to resolve unsupported-language copy: %w", err)
		}
		return c.delivery.Send(ctx, user.Identifier, msg)
	}

	if err := c.users.UpdateLanguage(ctx, user.Identifier, code); err != nil {
		return fmt.Errorf("failed to persist language change: %w", err)
	}
	user.LanguageCode = code

	// Confirm in the language just switched to.
	msg, err := c.locales.GetMessage("language.changed", code, c.locales.LanguageName(code))
	if err != nil {
		return fmt.Errorf("failed to resolve language-changed copy: %w", err)
	}
	log.Printf("🌐 [COMMANDS] User %s switched language to %s", user.Identifier, code)
	return c.delivery.Send(ctx, user.Identifier, msg)
}

func (c *CommandClassifier) handleHelp(ctx context.Context, user *models.User) error {
	msg, err := c.locales.GetMessage("help.body", user.LanguageCode)
	if err != nil {
		return fmt.Errorf("failed to resolve help copy: %w", err)
	}
	return c.delivery.Send(ctx, user.Identifier, msg)
}

// handleAvailability renders up to maxRenderedSlots open slots in the fixed
// look-ahead window (tomorrow through +7 days).
func (c *CommandClassifier) handleAvailability(ctx context.Context, user *models.User) error {
	now := time.Now()
	from := now.Add(slotsWindowStart)
	to := now.AddDate(0, 0, slotsWindowDays)

	slots, err := c.calendar.GetAvailableSlots(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to query availability: %w", err)
	}

	if len(slots) == 0 {
		msg, err := c.locales.GetMessage("calendar.no_slots", user.LanguageCode)
		if err != nil {
			return fmt.Errorf("failed to resolve no-slots copy: %w", err)
		}
		return c.delivery.Send(ctx, user.Identifier, msg)
	}

	header, err := c.locales.GetMessage("calendar.slots_header", user.LanguageCode)
	if err != nil {
		return fmt.Errorf("failed to resolve slots header: %w", err)
	}

	lines := []string{header}
	for i, slot := range slots {
		if i >= maxRenderedSlots {
			break
		}
		display := slot.Display
		if display == "" {
			display = fmt.Sprintf("%s – %s", slot.Start.Format("Mon 02 Jan 15:04"), slot.End.Format("15:04"))
		}
		line, err := c.locales.GetMessage("calendar.slot_line", user.LanguageCode, display)
		if err != nil {
			return fmt.Errorf("failed to resolve slot line copy: %w", err)
		}
		lines = append(lines, line)
	}

	return c.delivery.Send(ctx, user.Identifier, strings.Join(lines, "\n"))
}

func (c *CommandClassifier) handleBookingHelp(ctx context.Context, user *models.User) error {
	msg, err := c.locales.GetMessage("calendar.booking_help", user.LanguageCode)
	if err != nil {
		return fmt.Errorf("failed to resolve booking help copy: %w", err)
	}
	return c.delivery.Send(ctx, user.Identifier, msg)
}

func matchesAny(token string, keywords []string) bool {
	for _, kw := range keywords {
		if token == kw {
			return true
		}
	}
	return false
}

func hasAnyPrefix(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.HasPrefix(text, kw) {
			return true
		}
	}
	return false
}
