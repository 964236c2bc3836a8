package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"concierge/internal/config"
)

// AssistantService implements ReplyGenerator against an OpenAI
// Assistants-style API: one thread per contact is the conversational
// session, replies come from polled runs, and stateless completions go
// through the chat completions endpoint. Run polling is bounded by the
// context deadline the caller sets for the turn.
type AssistantService struct {
	apiKey       string
	baseURL      string
	assistantID  string
	model        string
	pollInterval time.Duration
	users        UserStore
	httpClient   *http.Client
}

// NewAssistantService creates a new assistant service
func NewAssistantService(cfg *config.Config, users UserStore) *AssistantService {
	return &AssistantService{
		apiKey:       cfg.AssistantAPIKey,
		baseURL:      strings.TrimRight(cfg.AssistantBaseURL, "/"),
		assistantID:  cfg.AssistantID,
		model:        cfg.AssistantModel,
		pollInterval: cfg.PollInterval,
		users:        users,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateOrGetSession returns the thread handle stored on the user record,
// creating a new thread when the contact has none yet. Idempotent: repeated
// calls for the same contact return the same handle.
func (s *AssistantService) CreateOrGetSession(ctx context.Context, identifier string) (string, error) {
	user, err := s.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("failed to look up session for %s: %w", identifier, err)
	}
	if user != nil && user.SessionID != "" {
		return user.SessionID, nil
	}

	var thread struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/threads", map[string]interface{}{}, &thread); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	log.Printf("🧵 [ASSISTANT] Created thread %s for contact %s", thread.ID, identifier)
	return thread.ID, nil
}

// GetReply appends the text to the session thread, runs the assistant and
// waits for the run to finish.
func (s *AssistantService) GetReply(ctx context.Context, sessionID, text string) (string, error) {
	return s.runThread(ctx, sessionID, text)
}

// GetReplyWithContext behaves like GetReply for an already-contextualized
// prompt. Kept separate so callers state their intent.
func (s *AssistantService) GetReplyWithContext(ctx context.Context, sessionID, contextualText string) (string, error) {
	return s.runThread(ctx, sessionID, contextualText)
}

// Complete runs a one-shot stateless completion outside any thread.
func (s *AssistantService) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := s.post(ctx, "/chat/completions", payload, &result); err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// runThread posts a user message, starts a run and polls until it reaches a
// terminal status, then returns the newest assistant message.
func (s *AssistantService) runThread(ctx context.Context, threadID, text string) (string, error) {
	msgPayload := map[string]interface{}{
		"role":    "user",
		"content": text,
	}
	if err := s.post(ctx, fmt.Sprintf("/threads/%s/messages", threadID), msgPayload, nil); err != nil {
		return "", fmt.Errorf("failed to append message to thread %s: %w", threadID, err)
	}

	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	runPayload := map[string]interface{}{
		"assistant_id": s.assistantID,
	}
	if err := s.post(ctx, fmt.Sprintf("/threads/%s/runs", threadID), runPayload, &run); err != nil {
		return "", fmt.Errorf("failed to start run on thread %s: %w", threadID, err)
	}

	status, err := s.waitForRun(ctx, threadID, run.ID, run.Status)
	if err != nil {
		return "", err
	}
	if status != "completed" {
		return "", fmt.Errorf("run %s finished with status %q", run.ID, status)
	}

	return s.latestAssistantMessage(ctx, threadID)
}

// waitForRun polls the run status until it is terminal or the context
// deadline expires.
func (s *AssistantService) waitForRun(ctx context.Context, threadID, runID, status string) (string, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for !isTerminalRunStatus(status) {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("run %s did not finish in time: %w", runID, ctx.Err())
		case <-ticker.C:
		}

		var run struct {
			Status string `json:"status"`
		}
		if err := s.get(ctx, fmt.Sprintf("/threads/%s/runs/%s", threadID, runID), &run); err != nil {
			return "", fmt.Errorf("failed to poll run %s: %w", runID, err)
		}
		status = run.Status
	}
	return status, nil
}

func isTerminalRunStatus(status string) bool {
	switch status {
	case "completed", "failed", "cancelled", "expired", "incomplete":
		return true
	}
	return false
}

// latestAssistantMessage fetches the newest assistant reply on a thread.
func (s *AssistantService) latestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var list struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=5", threadID)
	if err := s.get(ctx, path, &list); err != nil {
		return "", fmt.Errorf("failed to list thread messages: %w", err)
	}

	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text.Value != "" {
				return strings.TrimSpace(part.Text.Value), nil
			}
		}
	}
	return "", fmt.Errorf("no assistant message found on thread %s", threadID)
}

func (s *AssistantService) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *AssistantService) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *AssistantService) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("assistant API returned %d: %s", resp.StatusCode, truncateText(string(bodyBytes), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode assistant API response: %w", err)
	}
	return nil
}
