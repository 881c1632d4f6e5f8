package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
)

// Registry owns the live sessions. Each session has its own lock, so
// transitions on one session are serialised while different sessions run in
// parallel.
type Registry struct {
	oracle oracle.Oracle
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// NewRegistry creates sessions backed by o. Sessions idle for longer than
// ttl are dropped by Sweep; a zero ttl keeps them forever.
func NewRegistry(o oracle.Oracle, ttl time.Duration) *Registry {
	return &Registry{
		oracle:   o,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a session with its own randomly seeded generator.
func (r *Registry) Create(d roadrisk.Difficulty, playerName string) (View, error) {
	gen, err := scenario.NewRandom()
	if err != nil {
		return View{}, err
	}
	s, err := New(uuid.NewString(), gen, r.oracle, d)
	if err != nil {
		return View{}, err
	}
	s.PlayerName = playerName

	r.mu.Lock()
	r.sessions[s.ID] = &entry{session: s, lastUsed: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	return s.View(), nil
}

// lock finds the session and takes its lock. A session removed while the
// caller waited for the lock counts as not found.
func (r *Registry) lock(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, roadrisk.ErrNotFound)
	}

	e.mu.Lock()
	r.mu.RLock()
	live := r.sessions[id] == e
	r.mu.RUnlock()
	if !live {
		e.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", id, roadrisk.ErrNotFound)
	}
	return e, nil
}

// Do runs fn with exclusive access to the session.
func (r *Registry) Do(id string, fn func(*Session) error) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return fn(e.session)
}

// View returns a snapshot of the session.
func (r *Registry) View(id string) (View, error) {
	var v View
	err := r.Do(id, func(s *Session) error {
		v = s.View()
		return nil
	})
	return v, err
}

// Finish runs fn with exclusive access to the session and removes the
// session only if fn succeeds. On error the session stays live and
// unchanged apart from what fn did. A finished session cannot be finished
// again.
func (r *Registry) Finish(id string, fn func(*Session) error) (View, error) {
	e, err := r.lock(id)
	if err != nil {
		return View{}, err
	}
	defer e.mu.Unlock()
	e.lastUsed = r.now()

	if err := fn(e.session); err != nil {
		return View{}, err
	}
	v := e.session.View()

	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	return v, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// went. Sessions mid-transition are skipped until the next sweep.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.Sweep()
		}
	}
}
