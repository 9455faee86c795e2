// Package logger is an audit sink that writes events to a structured logger.
package logger

import (
	"context"
	"log/slog"

	audit "credo-referral/pkg/platform/audit"
)

type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"referrer", event.Referrer,
		"referee", event.Referee,
		"reason", event.Reason,
		"connection_id", event.ConnectionID,
		"request_id", event.RequestID,
		"client", event.Client,
	)
	return nil
}
