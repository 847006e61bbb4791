package admission

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// caps the number of generation calls in flight across the process.
// waiters are woken in FIFO order.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// a held admission slot
type Slot struct {
	gate *Gate
	once sync.Once
}

// creates a gate with the given capacity; capacity is fixed for its lifetime
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}

	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// blocks until a slot is free or ctx is done
func (g *Gate) Acquire(ctx context.Context) (*Slot, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for admission: %w", err)
	}

	g.inFlight.Add(1)

	return &Slot{gate: g}, nil
}

// returns the slot to the gate; only the first call has an effect
func (s *Slot) Release() {
	if s == nil {
		return
	}

	s.once.Do(func() {
		s.gate.inFlight.Add(-1)
		s.gate.sem.Release(1)
	})
}

// returns the configured number of slots
func (g *Gate) Capacity() int {
	return g.capacity
}

// returns the number of slots currently held
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}
