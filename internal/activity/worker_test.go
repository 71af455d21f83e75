package activity

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/pkg/requestcontext"
)

func TestRecorderAndWorker_DeliverEntries(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store := NewInMemoryStore()
	inbox := make(chan Entry, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewWorker(store, inbox, logger).Run(ctx)
	}()

	emitCtx := requestcontext.WithActor(
		requestcontext.WithTime(context.Background(), time.Unix(1710000000, 0)), "clerk")
	recorder := NewRecorder(inbox, logger)
	recorder.Emit(emitCtx, "bond.create", "bond", "b-1")
	recorder.Emit(emitCtx, "bond.renew", "bond", "b-1")

	require.Eventually(t, func() bool { return store.Len() == 2 }, time.Second, 5*time.Millisecond)

	entries, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bond.renew", entries[0].Action)
	assert.Equal(t, "clerk", entries[0].Actor)

	cancel()
	<-done
}

func TestWorker_StoreFailureDoesNotStopWorker(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store := NewInMemoryStore()
	inbox := make(chan Entry, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWorker(store, inbox, logger).Run(ctx) }()

	// The injected failure claims the first entry; the second persists.
	store.FailWith = errors.New("db down")
	inbox <- Entry{Action: "bond.create"}
	inbox <- Entry{Action: "bond.update"}

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	entries, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "bond.update", entries[0].Action)
}

func TestRecorder_DropsWhenInboxFull(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	inbox := make(chan Entry, 1)
	recorder := NewRecorder(inbox, logger)

	recorder.Emit(context.Background(), "a", "bond", "1")
	// No worker drains the inbox, so this one is dropped, not blocked on.
	recorder.Emit(context.Background(), "b", "bond", "2")

	assert.Len(t, inbox, 1)
}
