package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// TelegramService delivers outbound messages through the Telegram Bot API.
// Implements Deliverer; recipient identifiers are chat IDs in string form.
type TelegramService struct {
	botToken   string
	httpClient *http.Client
}

// NewTelegramService creates a new Telegram delivery service
func NewTelegramService(botToken string) *TelegramService {
	return &TelegramService{
		botToken: botToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts one text message to a chat.
func (s *TelegramService) Send(ctx context.Context, recipientID, text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	payload := map[string]interface{}{
		"chat_id": recipientID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [TELEGRAM] sendMessage to %s failed with %d", recipientID, resp.StatusCode)
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, truncateText(string(bodyBytes), 200))
	}
	return nil
}

// truncateText shortens text for log and error output.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
