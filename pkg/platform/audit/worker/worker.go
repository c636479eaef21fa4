package worker

import (
	"context"
	"log/slog"

	audit "aurum/pkg/platform/audit"
)

// Sink receives audit events fanned out from the publisher inbox. The Kafka
// producer is the production sink; tests use an in-process recorder.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from the publisher inbox and forwards them to
// a sink. Delivery is best effort: the store append that already happened is
// the durable record, the sink feeds downstream consumers.
type Worker struct {
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink publish failed",
					"action", event.Action,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
