package models

import "time"

// InboundMessage is a chat message delivered by the messaging transport
type InboundMessage struct {
	SenderIdentity string    `json:"sender_identity"`
	Body           string    `json:"body"`
	IsSelfAuthored bool      `json:"is_self_authored"`
	MessageSID     string    `json:"message_sid,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}
