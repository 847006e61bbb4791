package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *Store, userID string, at time.Time) {
	t.Helper()
	require.NoError(t, store.AppendTurns(userID, []Turn{
		{Role: RoleUser, Content: "hello", CreatedAt: at},
		{Role: RoleAssistant, Content: "hi there", CreatedAt: at},
	}))
}

func TestSweepEvictsOnlyExpiredSessions(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewStore()

	seed(t, store, "old", now.Add(-25*time.Hour))
	seed(t, store, "recent", now.Add(-23*time.Hour))

	svc := NewCleanupService(store, time.Hour, 24*time.Hour).WithClock(fixedClock(now))

	evicted := svc.Sweep(context.Background())

	assert.Equal(t, 1, evicted)
	assert.Empty(t, store.GetHistory("old"))
	assert.Len(t, store.GetHistory("recent"), 2)
}

func TestSweepUsesLastTurnTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewStore()

	seed(t, store, "alice", now.Add(-48*time.Hour))
	seed(t, store, "alice", now.Add(-time.Hour))

	svc := NewCleanupService(store, time.Hour, 24*time.Hour).WithClock(fixedClock(now))

	assert.Equal(t, 0, svc.Sweep(context.Background()))
	assert.Len(t, store.GetHistory("alice"), 4)
}

func TestSweepIsolatesPerKeyFailures(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewStore()

	for _, id := range []string{"a", "b", "c"} {
		seed(t, store, id, now.Add(-30*time.Hour))
	}

	var mu sync.Mutex
	notified := []string{}

	svc := NewCleanupService(store, time.Hour, 24*time.Hour).
		WithClock(fixedClock(now)).
		OnEvict(func(userID string) {
			mu.Lock()
			notified = append(notified, userID)
			mu.Unlock()

			if userID == "b" {
				panic("hook exploded")
			}
		})

	evicted := svc.Sweep(context.Background())

	assert.Equal(t, 3, evicted)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, notified)
	assert.Equal(t, 0, store.Len())
}

func TestSweepStopsWhenContextCancelled(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	seed(t, store, "x", now.Add(-30*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewCleanupService(store, time.Hour, 24*time.Hour).WithClock(fixedClock(now))

	assert.Equal(t, 0, svc.Sweep(ctx))
	assert.Equal(t, 1, store.Len())
}

func TestStartWaitsOneIntervalThenSweeps(t *testing.T) {
	store := NewStore()
	seed(t, store, "expired", time.Now().Add(-time.Hour))

	svc := NewCleanupService(store, 50*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		svc.Start(ctx)
		close(done)
	}()

	// not swept immediately
	assert.Equal(t, 1, store.Len())

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup service did not stop after cancel")
	}
}
