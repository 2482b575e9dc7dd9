package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxPerUser caps concurrent sessions of one username.
const DefaultMaxPerUser = 5

// Store keeps sessions in memory. Nothing survives a restart.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	ttl        time.Duration
	maxPerUser int
	now        func() time.Time
	log        zerolog.Logger
}

func NewStore(ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		maxPerUser: DefaultMaxPerUser,
		now:        time.Now,
		log:        log,
	}
}

// SetMaxPerUser changes the per-user cap; n <= 0 removes it.
func (st *Store) SetMaxPerUser(n int) {
	st.mu.Lock()
	st.maxPerUser = n
	st.mu.Unlock()
}

// Create registers a new session. When the user already holds the maximum
// number of sessions, the least recently used ones are evicted first,
// preferring sessions without a lookup in flight.
func (st *Store) Create(username string) *Session {
	s := newSession(uuid.NewString(), username, st.now)

	st.mu.Lock()
	evicted := st.evictLocked(username)
	st.sessions[s.ID] = s
	st.mu.Unlock()

	for _, id := range evicted {
		st.log.Info().Str("session_id", id).Str("username", username).Msg("session evicted, per-user limit reached")
	}
	st.log.Debug().Str("session_id", s.ID).Str("username", username).Msg("session created")
	return s
}

func (st *Store) evictLocked(username string) []string {
	if st.maxPerUser <= 0 {
		return nil
	}

	var owned []*Session
	for _, s := range st.sessions {
		if s.Username == username {
			owned = append(owned, s)
		}
	}

	var evicted []string
	for len(owned) >= st.maxPerUser {
		victim := oldest(owned)
		delete(st.sessions, owned[victim].ID)
		evicted = append(evicted, owned[victim].ID)
		owned = append(owned[:victim], owned[victim+1:]...)
	}
	return evicted
}

// oldest returns the index of the least recently seen session, ranking idle
// sessions before ones with a lookup in flight.
func oldest(list []*Session) int {
	best := -1
	var bestSeen time.Time
	bestBusy := false
	for i, s := range list {
		seen, status := s.idleSince()
		busy := status == StatusLoading
		switch {
		case best == -1,
			bestBusy && !busy,
			busy == bestBusy && seen.Before(bestSeen):
			best, bestSeen, bestBusy = i, seen, busy
		}
	}
	return best
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Delete drops the session and with it any held profile.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a lookup
// in flight are kept until it settles.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		lastSeen, status := s.idleSince()
		if status == StatusLoading || lastSeen.After(cutoff) {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	if removed > 0 {
		st.log.Info().Int("removed", removed).Int("remaining", len(st.sessions)).Msg("swept idle sessions")
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
