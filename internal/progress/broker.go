package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Update is one progress report for a document being processed.
type Update struct {
	DocumentID uuid.UUID `json:"document_id"`
	Page       int       `json:"page"`
	Total      int       `json:"total"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// subscriberBuffer bounds each subscriber channel. A slow consumer drops
// intermediate updates rather than blocking the publishing worker.
const subscriberBuffer = 16

// Broker fans progress updates out to subscribers and retains the latest
// update per document so late subscribers see current state immediately.
type Broker struct {
	mu          sync.RWMutex
	latest      map[uuid.UUID]Update
	subscribers map[uuid.UUID]map[chan Update]struct{}
	logger      *slog.Logger
}

// NewBroker creates an empty progress broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		latest:      make(map[uuid.UUID]Update),
		subscribers: make(map[uuid.UUID]map[chan Update]struct{}),
		logger:      logger.With(slog.String("component", "progress_broker")),
	}
}

// Publish records the update as the document's latest state and delivers it
// to all current subscribers. Subscribers whose buffers are full miss this
// update; they still converge on the latest state from later publishes.
// Sends happen under the broker lock: cancel closes channels under the same
// lock, so a subscriber disconnecting mid-publish can never turn a send
// into a send on a closed channel. The sends are non-blocking, so the lock
// is held only for the map walk.
func (b *Broker) Publish(update Update) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}

	b.mu.Lock()
	b.latest[update.DocumentID] = update
	for ch := range b.subscribers[update.DocumentID] {
		select {
		case ch <- update:
		default:
			b.logger.Debug("dropped progress update for slow subscriber",
				"document_id", update.DocumentID)
		}
	}
	b.mu.Unlock()
}

// Latest returns the most recent update for a document, if any.
func (b *Broker) Latest(documentID uuid.UUID) (Update, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	update, ok := b.latest[documentID]
	return update, ok
}

// Subscribe registers for updates on a document. If the document already
// has progress, that state is delivered first. The caller must call the
// returned cancel function when done, after which the channel is closed.
func (b *Broker) Subscribe(documentID uuid.UUID) (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	b.mu.Lock()
	subs, ok := b.subscribers[documentID]
	if !ok {
		subs = make(map[chan Update]struct{})
		b.subscribers[documentID] = subs
	}
	subs[ch] = struct{}{}
	if latest, ok := b.latest[documentID]; ok {
		// The channel is fresh, so the buffered send cannot block; the
		// select keeps the no-blocking-under-lock invariant explicit.
		select {
		case ch <- latest:
		default:
		}
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.subscribers[documentID]; ok {
			if _, member := subs[ch]; member {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.subscribers, documentID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Clear drops the retained state for a document once processing is
// finished and its progress no longer needs to be served.
func (b *Broker) Clear(documentID uuid.UUID) {
	b.mu.Lock()
	delete(b.latest, documentID)
	b.mu.Unlock()
	b.logger.Debug("progress cleared", "document_id", documentID)
}
