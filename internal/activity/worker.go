package activity

import (
	"context"
	"log/slog"
)

// Worker consumes entries from a channel and persists them. Store failures
// are logged and the worker keeps going: losing one advisory entry is
// better than stalling the whole log.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "activity append failed",
					"action", entry.Action, "entity", entry.Entity, "error", err)
			}
		}
	}
}
