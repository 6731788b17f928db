package models

import (
	"fmt"
	"time"
)

// ConversationState drives which messages a chat accepts
type ConversationState int

const (
	StateInitial ConversationState = iota
	StateCollecting
	StateFinalized
)

func (s ConversationState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateCollecting:
		return "collecting"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ConversationSession holds the state and order draft of one chat
type ConversationSession struct {
	ChatID    string            `json:"chat_id"`
	State     ConversationState `json:"state"`
	Draft     OrderDraft        `json:"draft"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewConversationSession creates a session for a chat seen for the first time
func NewConversationSession(chatID string) ConversationSession {
	now := time.Now()
	return ConversationSession{
		ChatID:    chatID,
		State:     StateInitial,
		Draft:     NewOrderDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
