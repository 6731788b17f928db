package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// MemorySessionStore keeps sessions in memory only.
// There is no eviction and no persistence: a restart drops every open order.
type MemorySessionStore struct {
	sessions map[string]models.ConversationSession
	mu       sync.RWMutex
}

// NewMemorySessionStore creates an empty session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]models.ConversationSession),
	}
}

func (m *MemorySessionStore) GetOrCreate(chatID string) models.ConversationSession {
	m.mu.RLock()
	session, exists := m.sessions[chatID]
	m.mu.RUnlock()
	if exists {
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[chatID]; exists {
		return session
	}
	session = models.NewConversationSession(chatID)
	m.sessions[chatID] = session
	return session
}

func (m *MemorySessionStore) Put(chatID string, session models.ConversationSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.ChatID = chatID
	session.UpdatedAt = time.Now()
	m.sessions[chatID] = session
}

// Len returns the number of known chats
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemorySessionStore) CountByState() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, session := range m.sessions {
		counts[session.State.String()]++
	}
	return counts
}

// MemoryOrderArchive holds finalized orders in memory (testing and local runs)
type MemoryOrderArchive struct {
	orders []*models.FinalizedOrder
	mu     sync.RWMutex

	// Counter for ID generation
	counter uint
}

// NewMemoryOrderArchive creates an empty in-memory archive
func NewMemoryOrderArchive() *MemoryOrderArchive {
	return &MemoryOrderArchive{}
}

func (m *MemoryOrderArchive) SaveFinalizedOrder(_ context.Context, order *models.FinalizedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	now := time.Now()
	order.ID = m.counter
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.FinalizedAt.IsZero() {
		order.FinalizedAt = now
	}

	stored := *order
	m.orders = append(m.orders, &stored)
	return nil
}

func (m *MemoryOrderArchive) ListFinalizedOrders(_ context.Context, limit int) ([]*models.FinalizedOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]*models.FinalizedOrder, 0, len(m.orders))
	for _, order := range m.orders {
		copied := *order
		orders = append(orders, &copied)
	}

	// Newest first
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ID > orders[j].ID
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *MemoryOrderArchive) GetFinalizedOrder(_ context.Context, reference string) (*models.FinalizedOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, order := range m.orders {
		if order.Reference == reference {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryOrderArchive) Ping(context.Context) error {
	return nil
}
