package activity

import (
	"context"
	"log/slog"

	"fidelis/pkg/requestcontext"
)

// Recorder feeds entries into the worker's inbox. Emitting never blocks the
// request path: when the inbox is full the entry is dropped and counted in
// the log, which is the correct trade for an advisory activity trail.
type Recorder struct {
	inbox  chan<- Entry
	logger *slog.Logger
}

func NewRecorder(inbox chan<- Entry, logger *slog.Logger) *Recorder {
	return &Recorder{inbox: inbox, logger: logger}
}

// Emit records one action, stamping actor, request id and time from the
// request context.
func (r *Recorder) Emit(ctx context.Context, action, entity, entityID string) {
	entry := Entry{
		Timestamp: requestcontext.Now(ctx),
		Actor:     requestcontext.Actor(ctx),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		RequestID: requestcontext.RequestID(ctx),
	}
	select {
	case r.inbox <- entry:
	default:
		r.logger.WarnContext(ctx, "activity inbox full, entry dropped",
			"action", action, "entity", entity, "entity_id", entityID)
	}
}
