// Package session keeps in-progress compositions in memory, one per
// composing user flow. Nothing survives a restart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/composer"
	"github.com/toplist/toplist/internal/reorder"
)

// Session is one composition flow. Its fields may only be used inside
// Store.With.
type Session struct {
	ID          string
	Composition *composer.Composition
	Surface     *reorder.Surface
	CreatedAt   time.Time
	LastActive  time.Time

	mu        sync.Mutex
	discarded bool
}

// Info is a summary of a session.
type Info struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"createdAt"`
	LastActive time.Time         `json:"lastActive"`
	State      composer.Snapshot `json:"state"`
}

// Store holds the live sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(clock clockwork.Clock, logger zerolog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		sessions: make(map[string]*Session),
		clock:    clock,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Create starts a new, empty composition.
func (s *Store) Create() Info {
	now := s.clock.Now()
	comp := composer.New(composer.WithClock(s.clock))
	sess := &Session{
		ID:          uuid.NewString(),
		Composition: comp,
		Surface:     reorder.NewSurface(comp),
		CreatedAt:   now,
		LastActive:  now,
	}
	info := sess.info()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug().Str("session", sess.ID).Msg("Session created")

	return info
}

// Get returns a summary of the session.
func (s *Store) Get(id string) (Info, error) {
	var info Info
	err := s.With(id, func(sess *Session) error {
		info = sess.info()
		return nil
	})
	return info, err
}

// With runs fn with exclusive access to the session and marks it active.
// Calls on the same session are serialized. A session discarded while the
// call waited for it is reported as not found.
func (s *Store) With(id string, fn func(sess *Session) error) error {
	return s.with(id, false, fn)
}

// Consume is With for the last step of a flow: when fn succeeds the session
// is discarded before any waiting call gets access to it.
func (s *Store) Consume(id string, fn func(sess *Session) error) error {
	return s.with(id, true, fn)
}

func (s *Store) with(id string, consume bool, fn func(sess *Session) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return notFound(id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.discarded {
		return notFound(id)
	}

	sess.LastActive = s.clock.Now()
	if err := fn(sess); err != nil {
		return err
	}

	if consume {
		sess.discarded = true
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.logger.Debug().Str("session", id).Msg("Session consumed")
	}
	return nil
}

// Discard drops the session. It reports whether the session existed.
func (s *Store) Discard(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	sess.discarded = true
	sess.mu.Unlock()

	s.logger.Debug().Str("session", id).Msg("Session discarded")
	return true
}

// Sweep drops every session idle for longer than idle and returns how many
// were dropped.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.clock.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		stale := sess.LastActive.Before(cutoff)
		if stale {
			sess.discarded = true
		}
		sess.mu.Unlock()

		if stale {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// SweepTask returns a scheduler task that sweeps idle sessions.
func (s *Store) SweepTask(idle time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		removed := s.Sweep(idle)
		if removed > 0 {
			s.logger.Info().
				Int("removed", removed).
				Int("remaining", s.Len()).
				Msg("Swept idle sessions")
		}
		return nil
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func notFound(id string) error {
	return apperr.NotFoundf("composition %s not found", id)
}

func (sess *Session) info() Info {
	return Info{
		ID:         sess.ID,
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActive,
		State:      sess.Composition.Snapshot(),
	}
}
