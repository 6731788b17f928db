package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/orderbot-backend/internal/config"
	"github.com/Ananth-NQI/orderbot-backend/internal/models"
	"github.com/Ananth-NQI/orderbot-backend/internal/services"
)

// MessageSubmitter queues inbound messages for asynchronous handling
type MessageSubmitter interface {
	Submit(msg models.InboundMessage) bool
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	dispatcher   MessageSubmitter
	conversation *services.ConversationService
	botIdentity  string
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(dispatcher MessageSubmitter, conversation *services.ConversationService, botIdentity string) *WhatsAppHandler {
	return &WhatsAppHandler{
		dispatcher:   dispatcher,
		conversation: conversation,
		botIdentity:  config.NormalizeChatID(botIdentity),
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To         string `form:"To"`   // Your Twilio number
	Body       string `form:"Body"` // Message text
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook accepts a message from Twilio and queues it. Replies are sent
// asynchronously so Twilio gets its acknowledgement right away.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks carry no sender
	if payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	msg := h.inboundMessage(payload.From, payload.Body, false)
	msg.MessageSID = payload.MessageSid
	log.Printf("📱 WhatsApp message %s from %s", payload.MessageSid, msg.SenderIdentity)

	h.dispatcher.Submit(msg)

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the development payload for /test/whatsapp
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
	FromMe  bool   `json:"from_me"`
}

// HandleTestWebhook runs a message synchronously and returns the replies
// instead of sending them (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)

	capture := &services.CaptureSender{}
	msg := h.inboundMessage(payload.From, payload.Message, payload.FromMe)
	err := h.conversation.WithSender(capture).HandleMessage(c.UserContext(), msg)

	replies := capture.Replies()
	if replies == nil {
		replies = []services.Reply{}
	}
	return c.JSON(fiber.Map{
		"success": err == nil,
		"replies": replies,
	})
}

func (h *WhatsAppHandler) inboundMessage(from, body string, fromMe bool) models.InboundMessage {
	sender := config.NormalizeChatID(from)
	return models.InboundMessage{
		SenderIdentity: sender,
		Body:           body,
		IsSelfAuthored: fromMe || (h.botIdentity != "" && sender == h.botIdentity),
		ReceivedAt:     time.Now(),
	}
}
