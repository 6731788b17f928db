package services

import (
	"context"
	"log"
	"sync"
)

// Sender delivers a text reply to a chat
type Sender interface {
	Send(ctx context.Context, chatID string, text string) error
}

// LogSender only logs replies. Used when Twilio is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, chatID string, text string) error {
	log.Printf("📤 Response to %s (not sent - Twilio not configured): %s", chatID, text)
	return nil
}

// Reply is one message captured by a CaptureSender
type Reply struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// CaptureSender records replies instead of delivering them (test webhook)
type CaptureSender struct {
	mu      sync.Mutex
	replies []Reply
}

func (c *CaptureSender) Send(_ context.Context, chatID string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, Reply{ChatID: chatID, Text: text})
	return nil
}

// Replies returns the captured replies in send order
func (c *CaptureSender) Replies() []Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Reply(nil), c.replies...)
}
