package consultation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory. Sessions idle for longer than ttl
// are dropped by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{sessions: make(map[uuid.UUID]*Session), ttl: ttl}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes idle sessions and returns how many were dropped. A session
// with a call in flight is kept.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.UpdatedAt) > st.ttl && !s.busy()
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is cancelled.
func (st *Store) Run(ctx context.Context, every time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Sweep(now); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
