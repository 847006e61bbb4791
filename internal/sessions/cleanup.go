package sessions

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/chatgate/server/internal/logger"
)

// evicts sessions whose newest turn is older than the retention window
type CleanupService struct {
	store         *Store
	checkInterval time.Duration
	ttl           time.Duration
	now           func() time.Time
	onEvict       EvictFunc
}

// called after a session has been removed by the reaper
type EvictFunc func(userID string)

// creates a new cleanup service
func NewCleanupService(store *Store, checkInterval, ttl time.Duration) *CleanupService {
	return &CleanupService{
		store:         store,
		checkInterval: checkInterval,
		ttl:           ttl,
		now:           time.Now,
	}
}

// overrides the clock used to compute session age
func (s *CleanupService) WithClock(now func() time.Time) *CleanupService {
	s.now = now
	return s
}

// registers a callback invoked for every evicted session
func (s *CleanupService) OnEvict(fn EvictFunc) *CleanupService {
	s.onEvict = fn
	return s
}

// runs the reaper loop until ctx is cancelled. the first sweep happens
// one full interval after start.
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting session cleanup service",
		"check_interval", s.checkInterval,
		"ttl", s.ttl,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session cleanup service stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// runs one eviction cycle and returns the number of sessions removed
func (s *CleanupService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)
	keys := s.store.SnapshotKeys()

	evicted := 0
	failed := 0

	for _, userID := range keys {
		if ctx.Err() != nil {
			break
		}

		ok, err := s.sweepKey(userID, cutoff)
		if ok {
			evicted++
		}

		if err != nil {
			failed++
			logger.ErrorErr(err, "failed to check session for expiry", "user_id", userID)
		}
	}

	logger.Info("session cleanup cycle finished",
		"scanned", len(keys),
		"evicted", evicted,
		"failed", failed,
		"remaining", s.store.Len(),
	)

	return evicted
}

// checks a single session; a panic here must not abort the whole scan
func (s *CleanupService) sweepKey(userID string, cutoff time.Time) (evicted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while checking session: %v", r)
		}
	}()

	if !s.store.EvictIfIdle(userID, cutoff) {
		return false, nil
	}

	evicted = true

	if s.onEvict != nil {
		s.onEvict(userID)
	}

	return evicted, nil
}
