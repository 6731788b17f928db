package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("storage: not found")

// SessionStore owns every conversation session, keyed by chat identity.
// Sessions are handed out by value; changes only land through Put.
type SessionStore interface {
	// GetOrCreate returns the session for the chat, creating it in the
	// initial state with an empty draft when the chat is new
	GetOrCreate(chatID string) models.ConversationSession

	// Put stores the session, overwriting any previous value
	Put(chatID string, session models.ConversationSession)
}

// SessionCounter reports how many sessions exist per state (for monitoring)
type SessionCounter interface {
	CountByState() map[string]int
}

// OrderArchive records finalized orders for staff follow-up
type OrderArchive interface {
	SaveFinalizedOrder(ctx context.Context, order *models.FinalizedOrder) error
	ListFinalizedOrders(ctx context.Context, limit int) ([]*models.FinalizedOrder, error)
	GetFinalizedOrder(ctx context.Context, reference string) (*models.FinalizedOrder, error)
	Ping(ctx context.Context) error
}
