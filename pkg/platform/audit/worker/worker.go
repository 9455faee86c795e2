package worker

import (
	"context"
	"log/slog"

	audit "credo-referral/pkg/platform/audit"
)

// Worker drains an event channel into a sink. A failing sink is logged and
// skipped so one bad event does not stall the queue.
type Worker struct {
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run processes events until the inbox is closed or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
