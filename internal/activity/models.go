// Package activity records who did what, per request, into an append-only
// log. Entries flow through a channel-fed worker so request handling never
// waits on the log store.
package activity

import (
	"context"
	"time"
)

// Entry is one recorded action. Keep it transport-agnostic so stores and
// sinks can fan out.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	RequestID string    `json:"request_id"`
}

// Store persists entries. Append-only.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
