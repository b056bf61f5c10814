// Package store keeps built plans between the planning request and the
// validation requests that follow it.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
)

// ErrNotFound is returned for unknown or evicted plans.
var ErrNotFound = errors.New("plan not found")

// Store holds plans by id until their ttl runs out.
type Store interface {
	Put(ctx context.Context, p *plan.Plan, ttl time.Duration) error
	Get(ctx context.Context, id string) (*plan.Plan, error)
	Close() error
}

type memoryEntry struct {
	plan    *plan.Plan
	expires time.Time
}

// MemoryStore is a process local Store. Expired plans are dropped lazily on
// access and by a periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	plans   map[string]memoryEntry
	now     func() time.Time
	stopCh  chan struct{}
	stopped chan struct{}
}

// NewMemoryStore starts a MemoryStore that sweeps every sweepInterval. A
// zero interval disables the sweep.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		plans:   make(map[string]memoryEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if sweepInterval <= 0 {
		close(s.stopped)
		return s
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
	return s
}

func (s *MemoryStore) Put(_ context.Context, p *plan.Plan, ttl time.Duration) error {
	if p == nil || p.ID == "" {
		return errors.New("plan without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = memoryEntry{plan: p, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.plans, id)
		return nil, ErrNotFound
	}
	return e.plan, nil
}

// Len returns the number of held plans, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.plans {
		if now.After(e.expires) {
			delete(s.plans, id)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.stopped
	return nil
}
