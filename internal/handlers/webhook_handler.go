package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"

	"concierge/internal/config"
	"concierge/internal/models"
	"concierge/internal/services"
)

// WebhookHandler decodes inbound Telegram updates to (identifier, text)
// pairs and dispatches them to the message router. Authentication, decoding
// and framing live here; the router never sees the wire format.
type WebhookHandler struct {
	cfg       *config.Config
	router    *services.MessageRouter
	delivery  services.Deliverer
	rateCache *gocache.Cache // per-user message counters for the rate window
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(cfg *config.Config, router *services.MessageRouter, delivery services.Deliverer) *WebhookHandler {
	return &WebhookHandler{
		cfg:       cfg,
		router:    router,
		delivery:  delivery,
		rateCache: gocache.New(time.Minute, 5*time.Minute),
	}
}

// TelegramWebhook handles POST /webhook/:secret. Returns 200 immediately
// and processes the message on its own goroutine with a bounded deadline,
// so a slow reply-generation call never stalls Telegram's delivery loop.
func (h *WebhookHandler) TelegramWebhook(c *fiber.Ctx) error {
	if c.Params("secret") != h.cfg.WebhookSecret {
		log.Printf("⚠️ [WEBHOOK] Invalid webhook secret")
		return c.Status(404).JSON(fiber.Map{"error": "Invalid webhook"})
	}

	var update models.TelegramUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Printf("⚠️ [WEBHOOK] Failed to parse update: %v", err)
		return c.SendStatus(200) // Don't make Telegram retry a bad payload
	}

	// Only text messages are routed.
	if update.Message == nil || update.Message.Chat == nil {
		return c.SendStatus(200)
	}

	identifier := fmt.Sprintf("%d", update.Message.Chat.ID)
	text := strings.TrimSpace(update.Message.Text)

	log.Printf("📨 [WEBHOOK] Received message from %s: %s", identifier, truncateText(text, 50))

	if h.exceedsRateLimit(identifier) {
		log.Printf("⏳ [WEBHOOK] Rate limit exceeded for %s", identifier)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.delivery.Send(ctx, identifier,
			"⏳ You're sending messages too quickly. Please wait a moment."); err != nil {
			log.Printf("⚠️ [WEBHOOK] Failed to send rate-limit notice: %v", err)
		}
		return c.SendStatus(200)
	}

	go h.process(identifier, text)

	// Acknowledge receipt immediately.
	return c.SendStatus(200)
}

// process runs one message turn with the configured deadline.
func (h *WebhookHandler) process(identifier, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ReplyTimeout)
	defer cancel()

	if err := h.router.HandleMessage(ctx, identifier, text); err != nil {
		log.Printf("❌ [WEBHOOK] Message turn failed for %s: %v", identifier, err)
	}
}

// exceedsRateLimit counts messages per identifier in a fixed one-minute
// window.
func (h *WebhookHandler) exceedsRateLimit(identifier string) bool {
	count, err := h.rateCache.IncrementInt(identifier, 1)
	if err != nil {
		h.rateCache.Set(identifier, 1, gocache.DefaultExpiration)
		return false
	}
	return count > h.cfg.UserRateLimit
}

// truncateText shortens text for log output.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
