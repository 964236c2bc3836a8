package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"concierge/internal/locale"
	"concierge/internal/logging"
	"concierge/internal/models"
)

// MessageRouter is the top-level composition for one inbound message:
// resolve identity and session, try commands, advance onboarding while the
// user is unregistered, otherwise answer conversationally with
// adaptively-scoped profile context. At most one outbound message is sent
// per inbound message; collaborator errors propagate to the transport.
type MessageRouter struct {
	users        UserStore
	replies      ReplyGenerator
	delivery     Deliverer
	classifier   *CommandClassifier
	registration *RegistrationService
	contexts     *ContextBuilder

	// Per-user serialization around the read-modify-write registration
	// cycle; concurrent turns from the same identifier would otherwise race.
	userLocks sync.Map // identifier -> *sync.Mutex
}

// NewMessageRouter creates a new message router
func NewMessageRouter(
	users UserStore,
	replies ReplyGenerator,
	delivery Deliverer,
	classifier *CommandClassifier,
	registration *RegistrationService,
	contexts *ContextBuilder,
) *MessageRouter {
	return &MessageRouter{
		users:        users,
		replies:      replies,
		delivery:     delivery,
		classifier:   classifier,
		registration: registration,
		contexts:     contexts,
	}
}

// HandleMessage processes one inbound (identifier, text) pair. Blank text is
// dropped silently. The context carries the turn deadline; a stuck
// collaborator call fails the turn instead of blocking forever.
func (r *MessageRouter) HandleMessage(ctx context.Context, identifier, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	unlock := r.lockUser(identifier)
	defer unlock()

	logger := logging.WithTurn(uuid.NewString(), identifier)
	logger.Debug("handling inbound message", "length", len(text))

	sessionID, err := r.replies.CreateOrGetSession(ctx, identifier)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	user, err := r.resolveUser(ctx, identifier, sessionID)
	if err != nil {
		return err
	}

	handled, err := r.classifier.TryHandleCommand(ctx, user, text)
	if err != nil {
		return fmt.Errorf("command handling failed: %w", err)
	}
	if handled {
		logger.Debug("message handled as command")
		return nil
	}

	if !user.IsRegistered() {
		result, err := r.registration.ProcessRegistration(ctx, user, text)
		if err != nil {
			return fmt.Errorf("registration step failed: %w", err)
		}
		if result.ShouldReply {
			if err := r.delivery.Send(ctx, identifier, result.Reply); err != nil {
				return fmt.Errorf("failed to deliver registration reply: %w", err)
			}
		}
		logger.Debug("registration step processed", "action", string(result.Action), "completed", result.Completed)
		return nil
	}

	var reply string
	if r.contexts.ShouldIncludeContext(text) {
		level := r.contexts.DetermineLevel(text, user.LanguageCode)
		prompt := r.contexts.FormatContext(user, text, level)
		reply, err = r.replies.GetReplyWithContext(ctx, sessionID, prompt)
		logger.Debug("generated contextual reply", "level", level.String())
	} else {
		reply, err = r.replies.GetReply(ctx, sessionID, text)
		logger.Debug("generated plain reply")
	}
	if err != nil {
		return fmt.Errorf("reply generation failed: %w", err)
	}

	if err := r.delivery.Send(ctx, identifier, reply); err != nil {
		return fmt.Errorf("failed to deliver reply: %w", err)
	}
	return nil
}

// resolveUser loads or lazily creates the user record, defaulting the
// language for new users and keeping the stored session handle current.
func (r *MessageRouter) resolveUser(ctx context.Context, identifier, sessionID string) (*models.User, error) {
	user, err := r.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		user, err = r.users.UpsertUser(ctx, &models.User{
			Identifier:   identifier,
			SessionID:    sessionID,
			LanguageCode: locale.DefaultLanguage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	}

	if user.SessionID != sessionID {
		user.SessionID = sessionID
		user, err = r.users.UpsertUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to update user session: %w", err)
		}
	}
	return user, nil
}

// lockUser acquires the keyed mutex for an identifier and returns the
// release function.
func (r *MessageRouter) lockUser(identifier string) func() {
	v, _ := r.userLocks.LoadOrStore(identifier, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
