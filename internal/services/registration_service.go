package services

import (
	"context"
	"fmt"
	"log"

	"concierge/internal/models"
)

// RegistrationService advances a user through progressive onboarding: first
// a name, then an email. Extraction failures never surface as errors; they
// degrade to a request-more-info reply. Persistence and localization
// failures propagate to the caller.
type RegistrationService struct {
	users     UserStore
	extractor *ExtractionService
	locales   Localizer
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(users UserStore, extractor *ExtractionService, locales Localizer) *RegistrationService {
	return &RegistrationService{
		users:     users,
		extractor: extractor,
		locales:   locales,
	}
}

// ProcessRegistration runs one registration-state transition for an inbound
// message. The state is computed once from the user record and never
// re-derived mid-turn.
func (s *RegistrationService) ProcessRegistration(ctx context.Context, user *models.User, text string) (models.RegistrationResult, error) {
	req := models.ExtractionRequest{
		Text:         text,
		LanguageCode: user.LanguageCode,
		SessionID:    user.SessionID,
	}

	switch state := user.RegistrationStateOf(); state {
	case models.RegistrationStateNew:
		return s.processNew(ctx, user, req)
	case models.RegistrationStateHasName:
		return s.processHasName(ctx, user, req)
	default:
		// Registered users should never reach this component.
		log.Printf("⚠️ [REGISTRATION] ProcessRegistration invoked for completed user %s", user.Identifier)
		return models.RegistrationResult{
			Completed: true,
			Action:    models.RegistrationActionNone,
		}, nil
	}
}

// processNew handles a user with no name yet. Both fields are attempted at
// once so registration can finish in a single turn.
func (s *RegistrationService) processNew(ctx context.Context, user *models.User, req models.ExtractionRequest) (models.RegistrationResult, error) {
	data := s.extractor.ExtractUserData(ctx, req)

	if !data.Name.Success() {
		reply, err := s.locales.GetMessage("registration.welcome", user.LanguageCode)
		if err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to resolve welcome copy: %w", err)
		}
		return models.RegistrationResult{
			ShouldReply: true,
			Reply:       reply,
			Action:      models.RegistrationActionRequestName,
		}, nil
	}

	name := data.Name.Value

	if data.Email.Success() {
		// Name and email in one message: complete in a single write.
		email := data.Email.Value
		if err := s.users.UpdateRegistration(ctx, user.Identifier, name, email); err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to persist registration: %w", err)
		}
		user.Name, user.Email = name, email
		log.Printf("🎉 [REGISTRATION] User %s completed registration in one turn", user.Identifier)

		reply, err := s.locales.GetMessage("registration.completed", user.LanguageCode, name)
		if err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to resolve completion copy: %w", err)
		}
		return models.RegistrationResult{
			Completed:   true,
			ShouldReply: true,
			Reply:       reply,
			Action:      models.RegistrationActionCompleteRegistration,
		}, nil
	}

	if err := s.users.UpdateRegistration(ctx, user.Identifier, name, ""); err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to persist name: %w", err)
	}
	user.Name = name
	log.Printf("👋 [REGISTRATION] Captured name for user %s (method: %s)", user.Identifier, data.Name.Method)

	reply, err := s.locales.GetMessage("registration.greet_with_name", user.LanguageCode, name)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to resolve greeting copy: %w", err)
	}
	return models.RegistrationResult{
		ShouldReply: true,
		Reply:       reply,
		Action:      models.RegistrationActionGreetWithName,
	}, nil
}

// processHasName handles a user whose name is set but email is missing.
func (s *RegistrationService) processHasName(ctx context.Context, user *models.User, req models.ExtractionRequest) (models.RegistrationResult, error) {
	res := s.extractor.ExtractEmail(ctx, req)

	if res.Success() {
		if err := s.users.UpdateRegistration(ctx, user.Identifier, user.Name, res.Value); err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to persist registration: %w", err)
		}
		user.Email = res.Value
		log.Printf("🎉 [REGISTRATION] User %s completed registration", user.Identifier)

		reply, err := s.locales.GetMessage("registration.completed", user.LanguageCode, user.Name)
		if err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to resolve completion copy: %w", err)
		}
		return models.RegistrationResult{
			Completed:   true,
			ShouldReply: true,
			Reply:       reply,
			Action:      models.RegistrationActionCompleteRegistration,
		}, nil
	}

	if res.Error == models.ExtractionErrorInvalidFormat {
		// A value was present but malformed; the copy explicitly rejects it
		// instead of re-prompting neutrally. Nothing is persisted.
		reply, err := s.locales.GetMessage("registration.invalid_email", user.LanguageCode)
		if err != nil {
			return models.RegistrationResult{}, fmt.Errorf("failed to resolve invalid-email copy: %w", err)
		}
		return models.RegistrationResult{
			ShouldReply: true,
			Reply:       reply,
			Action:      models.RegistrationActionShowInvalidEmail,
		}, nil
	}

	reply, err := s.locales.GetMessage("registration.request_email", user.LanguageCode)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to resolve email-prompt copy: %w", err)
	}
	return models.RegistrationResult{
		ShouldReply: true,
		Reply:       reply,
		Action:      models.RegistrationActionRequestEmail,
	}, nil
}
