package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
	"github.com/Ananth-NQI/orderbot-backend/internal/storage"
)

// ConversationConfig tunes the conversation flow
type ConversationConfig struct {
	FinalizeKeyword  string
	SilentFinalized  bool // stay quiet instead of sending the "already forwarded" notice
	GreetingDelay    time.Duration
	ExtractorTimeout time.Duration
}

// ConversationService runs the per-chat order conversation
type ConversationService struct {
	store      storage.SessionStore
	archive    storage.OrderArchive
	filter     *AccessFilter
	extractor  Extractor
	sender     Sender
	messages   *Messages
	reconciler *Reconciler
	cfg        ConversationConfig
	locks      *chatLocks
}

// NewConversationService wires the conversation flow. archive may be nil.
func NewConversationService(
	store storage.SessionStore,
	archive storage.OrderArchive,
	filter *AccessFilter,
	extractor Extractor,
	sender Sender,
	messages *Messages,
	cfg ConversationConfig,
) *ConversationService {
	if keyword := strings.TrimSpace(cfg.FinalizeKeyword); keyword != "" {
		copied := *messages
		copied.FinalizeKeyword = keyword
		messages = &copied
	}
	cfg.FinalizeKeyword = strings.TrimSpace(messages.FinalizeKeyword)
	if cfg.ExtractorTimeout <= 0 {
		cfg.ExtractorTimeout = 30 * time.Second
	}

	return &ConversationService{
		store:      store,
		archive:    archive,
		filter:     filter,
		extractor:  extractor,
		sender:     sender,
		messages:   messages,
		reconciler: NewReconciler(messages),
		cfg:        cfg,
		locks:      newChatLocks(),
	}
}

// WithSender returns a service sharing the same sessions and locks that
// replies through a different sender
func (c *ConversationService) WithSender(sender Sender) *ConversationService {
	copied := *c
	copied.sender = sender
	return &copied
}

// Admits reports whether the message passes the access filter
func (c *ConversationService) Admits(msg models.InboundMessage) bool {
	return c.filter.Admit(msg)
}

// HandleMessage processes one inbound message. Messages that fail the access
// filter are dropped before any session exists. When handling fails the
// session is left as it was, the customer gets an apology and the error is
// returned for logging.
func (c *ConversationService) HandleMessage(ctx context.Context, msg models.InboundMessage) (err error) {
	if !c.filter.Admit(msg) {
		log.Printf("🚫 Message from %s is not on the allow-list or is self-authored. Ignoring.", msg.SenderIdentity)
		return nil
	}

	chatID := msg.SenderIdentity
	unlock := c.locks.lock(chatID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling message from %s: %v", chatID, r)
		}
		if err != nil {
			log.Printf("❌ Error handling message for chat %s: %v", chatID, err)
			c.apologize(ctx, chatID, err)
		}
	}()

	session := c.store.GetOrCreate(chatID)
	log.Printf("📱 Message from %s in state %s: %s", chatID, session.State, msg.Body)

	next, err := c.dispatch(ctx, session, msg)
	if err != nil {
		return err
	}
	if next != nil {
		c.store.Put(chatID, *next)
		if next.State != session.State {
			log.Printf("🔄 Chat %s moved from %s to %s", chatID, session.State, next.State)
		}
	}
	return nil
}

// dispatch returns the session to store, or nil when nothing changes
func (c *ConversationService) dispatch(ctx context.Context, session models.ConversationSession, msg models.InboundMessage) (*models.ConversationSession, error) {
	switch session.State {
	case models.StateInitial:
		return c.greet(ctx, session)
	case models.StateCollecting:
		return c.collect(ctx, session, msg)
	case models.StateFinalized:
		return nil, c.remindFinalized(ctx, session)
	default:
		return c.resetUnknown(ctx, session)
	}
}

func (c *ConversationService) greet(ctx context.Context, session models.ConversationSession) (*models.ConversationSession, error) {
	for i, segment := range c.messages.GreetingSegments() {
		if i > 0 {
			if err := pause(ctx, c.cfg.GreetingDelay); err != nil {
				return nil, err
			}
		}
		if err := c.reply(ctx, session.ChatID, segment); err != nil {
			return nil, err
		}
	}

	session.Draft = models.NewOrderDraft()
	session.State = models.StateCollecting
	return &session, nil
}

func (c *ConversationService) collect(ctx context.Context, session models.ConversationSession, msg models.InboundMessage) (*models.ConversationSession, error) {
	body := strings.TrimSpace(msg.Body)

	if c.isFinalizeKeyword(body) {
		return c.finalize(ctx, session)
	}

	if body == "" {
		log.Printf("💤 Empty message from %s ignored in state %s", session.ChatID, session.State)
		return nil, nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, c.cfg.ExtractorTimeout)
	defer cancel()

	output, err := c.extractor.Extract(extractCtx, msg.Body, session.Draft)
	if err != nil {
		return nil, fmt.Errorf("extract draft update: %w", err)
	}
	log.Printf("🤖 Raw extractor output for %s:\n%s", session.ChatID, output)

	parsed := c.reconciler.Parse(output)
	if parsed.Recognized() == 0 {
		log.Printf("⚠️  Extractor output for %s had no recognizable fields; draft unchanged", session.ChatID)
	}
	session.Draft = c.reconciler.Apply(session.Draft, parsed)

	reply := c.messages.Text(c.messages.UpdateHeader) + "\n" +
		c.reconciler.RenderSummary(session.Draft) + "\n\n" +
		c.messages.Text(c.messages.UpdateFooter)
	if err := c.reply(ctx, session.ChatID, reply); err != nil {
		return nil, err
	}

	log.Printf("📝 Draft for %s updated: %+v", session.ChatID, session.Draft)
	return &session, nil
}

func (c *ConversationService) finalize(ctx context.Context, session models.ConversationSession) (*models.ConversationSession, error) {
	summary := c.messages.Text(c.messages.SummaryHeader) + "\n" +
		c.reconciler.RenderSummary(session.Draft) + "\n\n" +
		c.messages.Text(c.messages.SummaryFooter)
	if err := c.reply(ctx, session.ChatID, summary); err != nil {
		return nil, err
	}

	log.Printf("✅ Order finalized for %s: %+v", session.ChatID, session.Draft)
	c.archiveOrder(ctx, session)

	session.State = models.StateFinalized
	return &session, nil
}

func (c *ConversationService) remindFinalized(ctx context.Context, session models.ConversationSession) error {
	if c.cfg.SilentFinalized {
		log.Printf("Chat %s already finalized. Not replying.", session.ChatID)
		return nil
	}
	return c.reply(ctx, session.ChatID, c.messages.Text(c.messages.FinalizedNotice))
}

func (c *ConversationService) resetUnknown(ctx context.Context, session models.ConversationSession) (*models.ConversationSession, error) {
	log.Printf("⚠️  Unknown state %s for chat %s. Resetting.", session.State, session.ChatID)

	if err := c.reply(ctx, session.ChatID, c.messages.Text(c.messages.Instructions)); err != nil {
		return nil, err
	}

	session.Draft = models.NewOrderDraft()
	session.State = models.StateCollecting
	return &session, nil
}

// archiveOrder records the finalized order. Failures never block finalization.
func (c *ConversationService) archiveOrder(ctx context.Context, session models.ConversationSession) {
	if c.archive == nil {
		return
	}

	order := &models.FinalizedOrder{
		Reference:       uuid.NewString(),
		ChatID:          session.ChatID,
		CustomerName:    c.archivedValue(session.Draft, models.FieldName),
		DeliveryAddress: c.archivedValue(session.Draft, models.FieldAddress),
		OrderContents:   c.archivedValue(session.Draft, models.FieldOrder),
		PaymentMethod:   c.archivedValue(session.Draft, models.FieldPayment),
		FinalizedAt:     time.Now(),
	}
	if err := c.archive.SaveFinalizedOrder(ctx, order); err != nil {
		log.Printf("⚠️  Failed to archive finalized order for %s: %v", session.ChatID, err)
		return
	}
	log.Printf("📦 Finalized order %s archived for %s", order.Reference, session.ChatID)
}

func (c *ConversationService) archivedValue(d models.OrderDraft, f models.Field) string {
	if !d.IsSet(f) {
		return c.messages.Unset
	}
	return d.Get(f)
}

func (c *ConversationService) isFinalizeKeyword(body string) bool {
	return body != "" && strings.EqualFold(body, c.cfg.FinalizeKeyword)
}

func (c *ConversationService) reply(ctx context.Context, chatID, text string) error {
	if err := c.sender.Send(ctx, chatID, text); err != nil {
		return fmt.Errorf("send reply to %s: %w", chatID, err)
	}
	return nil
}

func (c *ConversationService) apologize(ctx context.Context, chatID string, cause error) {
	text := c.messages.ApologyGeneric
	if errors.Is(cause, ErrExtractorUnreachable) {
		text = c.messages.ApologyUnreachable
	}

	// the handling context may be what failed
	sendCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
	}
	if err := c.sender.Send(sendCtx, chatID, text); err != nil {
		log.Printf("❌ Failed to send apology to %s: %v", chatID, err)
	}
}

// pause waits between greeting segments
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chatLocks serialises message handling per chat identity.
// Only allow-listed chats get a lock, so the map stays bounded.
type chatLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *chatLocks) lock(chatID string) func() {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
