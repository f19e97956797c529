// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package feed drives one discovery session: the paginated, ranked list of
venues shown after the survey.

A Controller owns its session state and moves it through the states in
models.FeedStatus:

	loading_initial --ok--> idle <--ok-- refreshing
	      |                 |  ^              ^
	      |          more   v  | ok (hasMore) | refresh
	      |            loading_more ----------+
	      |                 | ok (!hasMore)
	      v                 v
	    failed          exhausted --refresh--> refreshing

Every list fetch is tagged with a generation number. Issuing a refresh bumps
the generation, so a load-more response that arrives afterwards is dropped
without touching the session. Failures move the session to failed and keep
the items already shown; Retry re-issues the operation that failed.

Fetches run detached from the caller. An operation returns once its fetch
has been applied or discarded, or earlier if the caller's context ends; in
that case the fetch still completes and is applied.
*/
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/scoring"
	"github.com/tomtom215/venuescout/internal/source"
)

var (
	// ErrStaleDiscarded marks a list response that arrived after a newer
	// request superseded it. It is only logged.
	ErrStaleDiscarded = errors.New("stale response discarded")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("feed session closed")
)

// DefaultFetchTimeout bounds one list fetch.
const DefaultFetchTimeout = 30 * time.Second

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	SessionID  string               `json:"sessionId"`
	Status     models.FeedStatus    `json:"status"`
	Items      []models.ScoredVenue `json:"items"`
	Cursor     string               `json:"cursor"`
	NextCursor string               `json:"nextCursor,omitempty"`
	HasMore    bool                 `json:"hasMore"`
	Generation uint64               `json:"generation"`
	LastError  string               `json:"lastError,omitempty"`
	ErrorKind  string               `json:"errorKind,omitempty"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the session logger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// WithFetchTimeout bounds each list fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithClock replaces time.Now for activity tracking.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.now = clock }
}

// Controller owns a discovery session: the preference vector, the ranked
// items accumulated so far and the paging state.
//
// State machine:
//
//	loading_initial --ok--> idle | exhausted
//	idle --LoadMore--> loading_more --ok--> idle | exhausted
//	idle | exhausted | loading_more | failed --Refresh--> refreshing --ok--> idle | exhausted
//	any loading state --error--> failed --Retry--> the state that failed
//
// Every fetch carries the generation it was started under. Starting a new
// fetch bumps the generation, so the result of a superseded fetch (a
// load-more overtaken by a refresh, or anything after Close) is dropped
// without touching the items or the page cache. Failures keep the items
// already shown.
//
// The controller is safe for concurrent use. The session mutex is never held
// across a source call; fetches run in their own goroutine and callers wait
// on them with their own context, so a caller that gives up leaves the fetch
// to finish and apply for other observers (see Subscribe).
type Controller struct {
	id           string
	src          source.Source
	cache        *cache.VenueCache
	engine       *scoring.Engine
	prefs        preference.Vector
	logger       zerolog.Logger
	fetchTimeout time.Duration
	now          func() time.Time

	mu         sync.Mutex
	status     models.FeedStatus
	failedFrom models.FeedStatus
	items      []models.ScoredVenue
	seen       map[string]struct{}
	cursor     string
	nextCursor string
	hasMore    bool
	generation uint64
	pending    uint64 // generation of the in-flight authoritative fetch, 0 if none
	lastErr    error
	updatedAt  time.Time
	lastSeen   time.Time
	closed     bool

	subs    map[int]chan Snapshot
	nextSub int

	wg sync.WaitGroup
}

// NewController creates a session in loading_initial. Call LoadInitial to
// fetch the first page.
func NewController(src source.Source, vc *cache.VenueCache, eng *scoring.Engine, prefs preference.Vector, opts ...Option) *Controller {
	c := &Controller{
		id:           uuid.New().String(),
		src:          src,
		cache:        vc,
		engine:       eng,
		prefs:        prefs,
		logger:       zerolog.Nop(),
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		status:       models.FeedLoadingInitial,
		seen:         make(map[string]struct{}),
		subs:         make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "feed").Str("session_id", c.id).Logger()
	c.updatedAt = c.now()
	metrics.FeedActiveSessions.Inc()
	return c
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Preferences returns the vector the session ranks by.
func (c *Controller) Preferences() preference.Vector { return c.prefs }

// LastActivity returns the later of the last state change and the last
// Touch.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSeen.After(c.updatedAt) {
		return c.lastSeen
	}
	return c.updatedAt
}

// Touch marks the session as in use without changing its state.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastSeen = c.now()
	c.mu.Unlock()
}

// LoadInitial fetches the first page. It acts only while the session is in
// loading_initial with nothing in flight.
func (c *Controller) LoadInitial(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if c.status != models.FeedLoadingInitial || c.pending != 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	done := c.startLocked(models.FeedLoadingInitial, "")
	c.mu.Unlock()
	return c.await(ctx, done)
}

// Refresh reloads the first page and replaces the accumulated items. It is
// ignored while an initial load or another refresh is running, and it
// supersedes a running load-more.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if c.status == models.FeedLoadingInitial || c.status == models.FeedRefreshing {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	if c.status == models.FeedLoadingMore {
		c.logger.Debug().Uint64("superseded_generation", c.pending).Msg("refresh supersedes load more")
	}
	c.cache.InvalidatePages()
	done := c.startLocked(models.FeedRefreshing, "")
	c.mu.Unlock()
	return c.await(ctx, done)
}

// LoadMore fetches the next page and appends its new items. It is a no-op,
// issuing no fetch, unless the session is idle with more pages available.
func (c *Controller) LoadMore(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if c.status != models.FeedIdle || !c.hasMore {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	done := c.startLocked(models.FeedLoadingMore, c.nextCursor)
	c.mu.Unlock()
	return c.await(ctx, done)
}

// Retry re-issues the operation that failed. It is a no-op unless the
// session is in failed.
func (c *Controller) Retry(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if c.status != models.FeedFailed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}

	mode, cursor := c.failedFrom, ""
	switch mode {
	case models.FeedLoadingMore:
		cursor = c.nextCursor
	case models.FeedRefreshing:
		c.cache.InvalidatePages()
	default:
		mode = models.FeedLoadingInitial
	}
	c.logger.Info().Str("retrying", string(mode)).Msg("retrying failed fetch")
	done := c.startLocked(mode, cursor)
	c.mu.Unlock()
	return c.await(ctx, done)
}

// GetDetail returns the full record of a venue through the detail cache.
func (c *Controller) GetDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return models.VenueDetail{}, ErrSessionClosed
	}
	return c.cache.GetDetail(ctx, id)
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Page returns the accumulated items as a feed page.
func (c *Controller) Page() models.FeedPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.FeedPage{
		Items:      append([]models.ScoredVenue{}, c.items...),
		Cursor:     c.cursor,
		NextCursor: c.nextCursor,
		HasMore:    c.hasMore,
	}
}

// Subscribe returns a channel that receives a snapshot after every state
// change, starting with the current one. Snapshots arrive in the order
// changes were applied; when the buffer is full newer snapshots are dropped
// for that subscriber. The returned func unsubscribes.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
			c.mu.Unlock()
		})
	}
}

// Close ends the session. In-flight fetches are discarded when they return
// and subscriber channels are closed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.pending = 0
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	metrics.FeedActiveSessions.Dec()
	c.logger.Debug().Msg("session closed")
}

// Wait blocks until every fetch started by the session has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// startLocked moves the session into mode, issues a new generation and
// starts the fetch. Callers hold c.mu.
func (c *Controller) startLocked(mode models.FeedStatus, cursor string) <-chan struct{} {
	c.generation++
	gen := c.generation
	c.pending = gen
	c.transitionLocked(mode)

	done := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()

		page, fetched, err := c.fetchPage(ctx, cursor)
		c.apply(gen, mode, page, fetched, err)
	}()
	return done
}

func (c *Controller) await(ctx context.Context, done <-chan struct{}) (Snapshot, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Snapshot{}, ErrSessionClosed
	}
	return c.snapshotLocked(), nil
}

// fetchPage returns the ranked page for cursor, from the page cache when
// present. fetched reports whether the page came from the source; such pages
// are cached by apply once they are known to be current.
func (c *Controller) fetchPage(ctx context.Context, cursor string) (page models.FeedPage, fetched bool, err error) {
	if cached, ok := c.cache.GetSummaryPage(c.prefs, cursor); ok {
		return cached, false, nil
	}

	res, err := c.src.ListVenues(ctx, c.prefs, cursor)
	if err != nil {
		return models.FeedPage{}, false, fmt.Errorf("list venues (cursor %q): %w", cursor, err)
	}

	return models.FeedPage{
		Items:      c.engine.Score(c.prefs, res.Items),
		Cursor:     cursor,
		NextCursor: res.NextCursor,
		HasMore:    res.HasMore,
	}, true, nil
}

// apply folds a fetch result into the session unless gen was superseded. A
// superseded page is dropped entirely, so it never reaches the page cache.
//
//nolint:gocritic // hugeParam: page is consumed here
func (c *Controller) apply(gen uint64, mode models.FeedStatus, page models.FeedPage, fetched bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation {
		metrics.FeedStaleDiscarded.Inc()
		c.logger.Debug().
			Err(ErrStaleDiscarded).
			Uint64("generation", gen).
			Uint64("current_generation", c.generation).
			Str("mode", string(mode)).
			Msg("dropping superseded list response")
		return
	}
	c.pending = 0

	if err != nil {
		c.lastErr = err
		c.failedFrom = mode
		c.logger.Warn().Err(err).Str("mode", string(mode)).Str("kind", source.Kind(err)).Msg("list fetch failed")
		c.transitionLocked(models.FeedFailed)
		return
	}
	c.lastErr = nil
	if fetched {
		c.cache.PutSummaryPage(c.prefs, page.Cursor, page)
	}

	switch mode {
	case models.FeedLoadingMore:
		c.appendLocked(page.Items)
	default:
		c.items = c.items[:0:0]
		c.seen = make(map[string]struct{}, len(page.Items))
		c.appendLocked(page.Items)
	}

	c.cursor = page.Cursor
	c.hasMore = page.HasMore
	c.nextCursor = page.NextCursor
	if mode != models.FeedLoadingMore && len(page.Items) == 0 {
		c.hasMore = false
	}
	if !c.hasMore {
		c.nextCursor = ""
	}

	if c.hasMore {
		c.transitionLocked(models.FeedIdle)
	} else {
		c.transitionLocked(models.FeedExhausted)
	}
}

func (c *Controller) appendLocked(items []models.ScoredVenue) {
	for i := range items {
		id := items[i].Venue.ID
		if _, dup := c.seen[id]; dup {
			continue
		}
		c.seen[id] = struct{}{}
		c.items = append(c.items, items[i])
	}
}

// transitionLocked records a state change and notifies subscribers.
func (c *Controller) transitionLocked(to models.FeedStatus) {
	from := c.status
	c.status = to
	c.updatedAt = c.now()
	metrics.RecordFeedTransition(string(from), string(to))
	c.logger.Debug().
		Str("from", string(from)).
		Str("to", string(to)).
		Uint64("generation", c.generation).
		Int("items", len(c.items)).
		Msg("feed transition")

	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			metrics.WSErrors.WithLabelValues("snapshot_dropped").Inc()
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:  c.id,
		Status:     c.status,
		Items:      append([]models.ScoredVenue{}, c.items...),
		Cursor:     c.cursor,
		NextCursor: c.nextCursor,
		HasMore:    c.hasMore,
		Generation: c.generation,
		UpdatedAt:  c.updatedAt,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
		s.ErrorKind = source.Kind(c.lastErr)
	}
	return s
}
