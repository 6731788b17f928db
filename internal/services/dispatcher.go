package services

import (
	"context"
	"log"
	"sync"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// MessageHandler is what the dispatcher feeds messages to
type MessageHandler interface {
	Admits(msg models.InboundMessage) bool
	HandleMessage(ctx context.Context, msg models.InboundMessage) error
}

// Dispatcher gives every chat its own FIFO queue and worker so messages of
// one chat are handled in arrival order while different chats run concurrently
type Dispatcher struct {
	handler   MessageHandler
	queueSize int

	mu     sync.Mutex
	queues map[string]chan models.InboundMessage
	closed bool

	stop    chan struct{}
	wg      sync.WaitGroup
	baseCtx context.Context
}

// NewDispatcher creates a dispatcher. queueSize bounds the backlog per chat.
func NewDispatcher(handler MessageHandler, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Dispatcher{
		handler:   handler,
		queueSize: queueSize,
		queues:    make(map[string]chan models.InboundMessage),
		stop:      make(chan struct{}),
		baseCtx:   context.Background(),
	}
}

// Submit queues a message for its chat without blocking. It returns false when
// the message is filtered out, the dispatcher is stopping or the chat's queue
// is full. Filtered messages never get a queue.
func (d *Dispatcher) Submit(msg models.InboundMessage) bool {
	if !d.handler.Admits(msg) {
		log.Printf("🚫 Dropping message from %s before dispatch", msg.SenderIdentity)
		return false
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	queue, ok := d.queues[msg.SenderIdentity]
	if !ok {
		queue = make(chan models.InboundMessage, d.queueSize)
		d.queues[msg.SenderIdentity] = queue
		d.wg.Add(1)
		go d.work(msg.SenderIdentity, queue)
	}
	d.mu.Unlock()

	select {
	case queue <- msg:
		return true
	default:
		log.Printf("⚠️  Queue for %s is full (%d messages). Dropping message.", msg.SenderIdentity, d.queueSize)
		return false
	}
}

func (d *Dispatcher) work(chatID string, queue <-chan models.InboundMessage) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case msg := <-queue:
			// stop wins over a ready queue
			select {
			case <-d.stop:
				return
			default:
			}
			if err := d.handler.HandleMessage(d.baseCtx, msg); err != nil {
				log.Printf("❌ Message from %s failed: %v", chatID, err)
			}
		}
	}
}

// ActiveChats returns how many chats have a worker
func (d *Dispatcher) ActiveChats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Stop refuses new messages, lets in-flight messages finish and waits for the
// workers until ctx expires. Queued messages that have not started are never
// handled once Stop is called.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
