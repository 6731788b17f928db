package services

import (
	"github.com/Ananth-NQI/orderbot-backend/internal/config"
	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// AccessFilter decides which chats the bot serves at all.
// It is built once at startup and never changes.
type AccessFilter struct {
	allowed     map[string]struct{}
	botIdentity string
}

// NewAccessFilter creates a filter over a fixed allow-list
func NewAccessFilter(allowed []string, botIdentity string) *AccessFilter {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		if id = config.NormalizeChatID(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return &AccessFilter{allowed: set, botIdentity: config.NormalizeChatID(botIdentity)}
}

// Allowed reports whether the chat identity is on the allow-list
func (a *AccessFilter) Allowed(chatID string) bool {
	_, ok := a.allowed[config.NormalizeChatID(chatID)]
	return ok
}

// Admit reports whether a message should be handled: the sender must be
// allowed and the message must not come from the bot itself
func (a *AccessFilter) Admit(msg models.InboundMessage) bool {
	if msg.IsSelfAuthored {
		return false
	}
	sender := config.NormalizeChatID(msg.SenderIdentity)
	if a.botIdentity != "" && sender == a.botIdentity {
		return false
	}
	return a.Allowed(sender)
}

// Size returns how many chats are allowed
func (a *AccessFilter) Size() int {
	return len(a.allowed)
}
