// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package feed

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/scoring"
	"github.com/tomtom215/venuescout/internal/source"
)

var (
	// ErrSessionNotFound is returned for an unknown or evicted session id.
	ErrSessionNotFound = errors.New("feed session not found")

	// ErrTooManySessions is returned when the registry is full.
	ErrTooManySessions = errors.New("too many open feed sessions")
)

// RegistryConfig limits the open sessions.
type RegistryConfig struct {
	// MaxSessions caps open sessions. Zero means no cap.
	MaxSessions int `koanf:"max_sessions"`

	// IdleTimeout is how long a session may go without a state change
	// before EvictIdle closes it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// FetchTimeout bounds one list fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// Registry holds the open discovery sessions.
//
// All sessions share one source, one venue cache and one scoring engine, so
// two sessions with the same preferences reuse each other's ranked pages.
// Sessions are independent otherwise: each has its own state machine and
// generation counter, and closing one never affects another.
//
// Lifetime:
//   - Create opens a session in loading_initial and fails with
//     ErrTooManySessions once MaxSessions are open
//   - Get marks the session active, deferring idle eviction
//   - Remove and EvictIdle close the session; later calls on a held
//     *Controller return ErrSessionClosed
//
// EvictIdle is run periodically by the session janitor.
type Registry struct {
	src    source.Source
	cache  *cache.VenueCache
	engine *scoring.Engine
	cfg    RegistryConfig
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewRegistry creates an empty registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRegistry(src source.Source, vc *cache.VenueCache, eng *scoring.Engine, cfg RegistryConfig, logger zerolog.Logger) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Registry{
		src:      src,
		cache:    vc,
		engine:   eng,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Controller),
	}
}

// Create opens a session ranked by prefs. The session is in loading_initial;
// the caller starts it with LoadInitial.
func (r *Registry) Create(prefs preference.Vector) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	c := NewController(r.src, r.cache, r.engine, prefs,
		WithLogger(r.logger),
		WithFetchTimeout(r.cfg.FetchTimeout),
		WithClock(r.now),
	)
	r.sessions[c.ID()] = c
	return c, nil
}

// Get returns an open session and marks it as in use.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	c, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	c.Touch()
	return c, nil
}

// Remove closes and forgets a session. Unknown ids are ignored.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle closes sessions whose last state change is older than the idle
// timeout and returns how many were closed.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var idle []*Controller
	for id, c := range r.sessions {
		if c.LastActivity().Before(cutoff) {
			idle = append(idle, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		r.logger.Info().Int("evicted", len(idle)).Msg("closed idle feed sessions")
	}
	return len(idle)
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
