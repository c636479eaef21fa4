package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Implementations must honor a transaction
// carried in the context so events commit or roll back with the operation
// that produced them.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An optional
// inbox fans events out to background sinks (Kafka) after the store append.
type Publisher struct {
	store Store
	inbox chan<- Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithInbox attaches a channel consumed by a sink worker. Sends are
// non-blocking; a full inbox drops the fan-out copy, never the store write.
func WithInbox(inbox chan<- Event) Option {
	return func(p *Publisher) {
		p.inbox = inbox
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists the event, assigning id and timestamp when unset. Callers
// treat a failure as a failure of the operation being audited.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
		}
	}
	return nil
}

// ListByAccount returns the event history touching one account.
func (p *Publisher) ListByAccount(ctx context.Context, accountID string) ([]Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}

// ListRecent returns the most recent events across the whole log.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
