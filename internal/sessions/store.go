package sessions

import (
	"fmt"
	"time"
)

// returns an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// overrides the clock used to stamp committed turns
func (m *Store) WithClock(now func() time.Time) *Store {
	m.now = now
	return m
}

// returns a copy of the user's turns, oldest first.
// an unknown user yields an empty history.
func (m *Store) GetHistory(userID string) []Turn {
	s := m.lookup(userID)
	if s == nil {
		return []Turn{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted {
		return []Turn{}
	}

	history := make([]Turn, len(s.turns))
	copy(history, s.turns)

	return history
}

// atomically appends turns to the user's session, creating it if needed.
//
// Turns with a zero CreatedAt are stamped with a single commit time taken
// under the session lock. Explicit timestamps must keep the session
// non-decreasing, otherwise nothing is appended and ErrStoreCorruption is
// returned.
func (m *Store) AppendTurns(userID string, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}

	for {
		s := m.getOrCreate(userID)

		s.mu.Lock()
		if s.evicted {
			// lost a race with the reaper, retry against a fresh session
			s.mu.Unlock()
			continue
		}

		err := s.append(turns, m.now())
		s.mu.Unlock()

		if err != nil {
			return fmt.Errorf("append turns for %q: %w", userID, err)
		}

		return nil
	}
}

// returns the user ids that currently have a session
func (m *Store) SnapshotKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		keys = append(keys, id)
	}

	return keys
}

// removes the user's session unconditionally
func (m *Store) Evict(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return
	}

	s.mu.Lock()
	s.evicted = true
	s.mu.Unlock()

	delete(m.sessions, userID)
}

// removes the user's session if its newest turn is older than cutoff.
// empty sessions are always removed. reports whether an eviction happened.
func (m *Store) EvictIfIdle(userID string, cutoff time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.turns); n > 0 && !s.turns[n-1].CreatedAt.Before(cutoff) {
		return false
	}

	s.evicted = true
	delete(m.sessions, userID)

	return true
}

// returns the timestamp of the user's newest turn
func (m *Store) LastActivity(userID string) (time.Time, bool) {
	s := m.lookup(userID)
	if s == nil {
		return time.Time{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted || len(s.turns) == 0 {
		return time.Time{}, false
	}

	return s.turns[len(s.turns)-1].CreatedAt, true
}

// returns the number of live sessions
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Store) lookup(userID string) *session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}

func (m *Store) getOrCreate(userID string) *session {
	if s := m.lookup(userID); s != nil {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	s := &session{}
	m.sessions[userID] = s

	return s
}

// validates and appends under s.mu
func (s *session) append(turns []Turn, now time.Time) error {
	var last time.Time
	if n := len(s.turns); n > 0 {
		last = s.turns[n-1].CreatedAt
	}

	// a wall clock that stepped backwards must not break ordering
	commit := now
	if commit.Before(last) {
		commit = last
	}

	next := make([]Turn, 0, len(s.turns)+len(turns))
	next = append(next, s.turns...)

	for i, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = commit
			if t.CreatedAt.Before(last) {
				t.CreatedAt = last
			}
		}

		if t.CreatedAt.Before(last) {
			return fmt.Errorf("%w: turn %d at %s precedes %s", ErrStoreCorruption, i,
				t.CreatedAt.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
		}

		last = t.CreatedAt
		next = append(next, t)
	}

	s.turns = next

	return nil
}
