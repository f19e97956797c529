// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// ErrFetchFailed marks a detail that could not be fetched and had no cached
// value to fall back on.
var ErrFetchFailed = errors.New("venue detail fetch failed")

// FetchError reports a failed cold fetch. It matches both ErrFetchFailed
// and the underlying source error under errors.Is.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch venue %q: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// Freshness is the state of a cached detail.
type Freshness string

// Freshness states.
const (
	Fresh Freshness = "fresh"
	Stale Freshness = "stale"
)

// DetailEntry is a cached detail with the time it was fetched.
type DetailEntry struct {
	Value     models.VenueDetail
	FetchedAt time.Time
	State     Freshness
}

// DetailFetcher loads a venue detail. source.Source satisfies it.
type DetailFetcher interface {
	GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error)
}

// Config holds the freshness windows.
type Config struct {
	// PageTTL is how long a ranked summary page is reused.
	PageTTL time.Duration `koanf:"page_ttl"`

	// DetailStaleAfter is the age at which a detail is served stale and
	// revalidated in the background.
	DetailStaleAfter time.Duration `koanf:"detail_stale_after"`

	// DetailMaxAge is the age at which a detail is no longer served at all.
	// Zero keeps stale details indefinitely.
	DetailMaxAge time.Duration `koanf:"detail_max_age"`

	// FetchTimeout bounds one source fetch, independent of any caller.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// DefaultConfig returns a 60 second page TTL and a 5 minute detail stale
// threshold.
func DefaultConfig() Config {
	return Config{
		PageTTL:          60 * time.Second,
		DetailStaleAfter: 5 * time.Minute,
		FetchTimeout:     30 * time.Second,
	}
}

// VenueStats counts detail cache activity.
type VenueStats struct {
	DetailEntries   int
	PageEntries     int
	PageHitRate     float64 // percent of page lookups served from the cache
	SourceFetches   int64
	Coalesced       int64
	StaleServed     int64
	RefreshFailures int64
}

type storedDetail struct {
	value     models.VenueDetail
	fetchedAt time.Time
}

// VenueCache stores ranked summary pages under a TTL and venue details under
// stale-while-revalidate.
//
// Pages are keyed by the preference vector and cursor and expire after
// PageTTL. Callers only put pages that are still current; a session that
// refreshes calls InvalidatePages first.
//
// Details go through three states by age:
//
//	age < DetailStaleAfter                   fresh, served from memory
//	DetailStaleAfter <= age < DetailMaxAge   stale, served and revalidated in the background
//	age >= DetailMaxAge (when set)           absent, fetched again
//
// Concurrent misses for one id share a single source fetch, and at most one
// background revalidation runs per id. A failed revalidation keeps the stale
// value. Fetches run on their own timeout, so a caller that gives up does
// not cancel the fetch for everyone else waiting on it.
//
// Example:
//
//	vc := cache.NewVenueCache(src, cache.DefaultConfig(), cache.WithLogger(logger))
//	detail, err := vc.GetDetail(ctx, "2")
type VenueCache struct {
	cfg     Config
	now     Clock
	fetcher DetailFetcher
	logger  zerolog.Logger

	pages *Cache[models.FeedPage]

	mu         sync.RWMutex
	details    map[string]storedDetail
	refreshing map[string]struct{}

	group singleflight.Group
	bg    sync.WaitGroup

	sourceFetches   atomic.Int64
	coalesced       atomic.Int64
	staleServed     atomic.Int64
	refreshFailures atomic.Int64
}

// VenueOption configures a VenueCache.
type VenueOption func(*VenueCache)

// WithClock replaces time.Now.
func WithClock(clock Clock) VenueOption {
	return func(c *VenueCache) { c.now = clock }
}

// WithLogger sets the cache logger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func WithLogger(logger zerolog.Logger) VenueOption {
	return func(c *VenueCache) { c.logger = logger }
}

// NewVenueCache creates a cache that loads details through fetcher.
func NewVenueCache(fetcher DetailFetcher, cfg Config, opts ...VenueOption) *VenueCache {
	def := DefaultConfig()
	if cfg.PageTTL <= 0 {
		cfg.PageTTL = def.PageTTL
	}
	if cfg.DetailStaleAfter <= 0 {
		cfg.DetailStaleAfter = def.DetailStaleAfter
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}

	c := &VenueCache{
		cfg:        cfg,
		now:        time.Now,
		fetcher:    fetcher,
		logger:     zerolog.Nop(),
		details:    make(map[string]storedDetail),
		refreshing: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "venue-cache").Logger()
	c.pages = New[models.FeedPage]("page", cfg.PageTTL, c.now)
	return c
}

// Config returns the effective configuration.
func (c *VenueCache) Config() Config {
	return c.cfg
}

type pageKey struct {
	Prefs  string `json:"p"`
	Cursor string `json:"c"`
}

func pageCacheKey(prefs preference.Vector, cursor string) string {
	return GenerateKey("page", pageKey{Prefs: prefs.Key(), Cursor: cursor})
}

// GetSummaryPage returns the ranked page cached for prefs and cursor.
func (c *VenueCache) GetSummaryPage(prefs preference.Vector, cursor string) (models.FeedPage, bool) {
	page, ok := c.pages.Get(pageCacheKey(prefs, cursor))
	if !ok {
		return models.FeedPage{}, false
	}
	page.Items = append([]models.ScoredVenue(nil), page.Items...)
	return page, true
}

// PutSummaryPage caches a ranked page for PageTTL.
func (c *VenueCache) PutSummaryPage(prefs preference.Vector, cursor string, page models.FeedPage) {
	page.Items = append([]models.ScoredVenue(nil), page.Items...)
	c.pages.Set(pageCacheKey(prefs, cursor), page)
}

// InvalidatePages drops every cached page.
func (c *VenueCache) InvalidatePages() {
	c.pages.Clear()
}

// PeekDetail returns the cached entry for id without fetching or counting a
// lookup. Entries past DetailMaxAge are reported absent.
func (c *VenueCache) PeekDetail(id string) (DetailEntry, bool) {
	c.mu.RLock()
	e, ok := c.details[id]
	c.mu.RUnlock()
	if !ok {
		return DetailEntry{}, false
	}
	state, usable := c.freshness(e)
	if !usable {
		return DetailEntry{}, false
	}
	return DetailEntry{Value: e.value.Clone(), FetchedAt: e.fetchedAt, State: state}, true
}

// GetDetail returns the detail for id.
//
//   - fresh entry: returned with no source call
//   - stale entry: returned immediately; one background refresh is started
//     unless one is already running for id
//   - missing entry: the caller waits for a fetch shared by all concurrent
//     callers for id; ctx bounds only this caller's wait
//
// A failed background refresh keeps the stale value. A failed cold fetch
// returns a *FetchError.
func (c *VenueCache) GetDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	c.mu.RLock()
	e, ok := c.details[id]
	c.mu.RUnlock()

	if ok {
		if state, usable := c.freshness(e); usable {
			metrics.RecordCacheLookup("detail", true)
			if state == Stale {
				c.staleServed.Add(1)
				metrics.CacheStaleServed.WithLabelValues("detail").Inc()
				c.revalidate(ctx, id)
			}
			return e.value.Clone(), nil
		}
	}
	metrics.RecordCacheLookup("detail", false)

	ch := c.group.DoChan(id, func() (interface{}, error) {
		return c.load(ctx, id, "cold")
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.coalesced.Add(1)
		}
		if res.Err != nil {
			return models.VenueDetail{}, &FetchError{ID: id, Err: res.Err}
		}
		d := res.Val.(models.VenueDetail) //nolint:errcheck // load only returns VenueDetail
		return d.Clone(), nil
	case <-ctx.Done():
		return models.VenueDetail{}, &FetchError{ID: id, Err: ctx.Err()}
	}
}

// revalidate starts a background refresh of id unless one is in flight.
func (c *VenueCache) revalidate(ctx context.Context, id string) {
	c.mu.Lock()
	if _, busy := c.refreshing[id]; busy {
		c.mu.Unlock()
		return
	}
	c.refreshing[id] = struct{}{}
	c.mu.Unlock()

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, id)
			c.mu.Unlock()
		}()

		res := <-c.group.DoChan(id, func() (interface{}, error) {
			return c.load(ctx, id, "refresh")
		})
		if res.Err != nil {
			c.refreshFailures.Add(1)
			metrics.CacheRefreshFailures.WithLabelValues("detail").Inc()
			c.logger.Warn().Err(res.Err).Str("venue_id", id).Msg("background refresh failed, keeping stale detail")
		}
	}()
}

// load fetches id from the source and stores it. It runs detached from the
// caller's cancellation because other callers may be waiting on it.
func (c *VenueCache) load(ctx context.Context, id, mode string) (models.VenueDetail, error) {
	// A fetch that completed between the caller's lookup and joining the
	// group already stored a fresh value.
	c.mu.RLock()
	e, ok := c.details[id]
	c.mu.RUnlock()
	if ok {
		if state, usable := c.freshness(e); usable && state == Fresh {
			return e.value, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
	defer cancel()

	c.sourceFetches.Add(1)
	metrics.CacheSourceFetches.WithLabelValues("detail", mode).Inc()

	d, err := c.fetcher.GetVenueDetail(fetchCtx, id)
	if err != nil {
		return models.VenueDetail{}, err
	}
	d = d.Clone()

	c.mu.Lock()
	c.details[id] = storedDetail{value: d, fetchedAt: c.now()}
	n := len(c.details)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues("detail").Set(float64(n))

	c.logger.Debug().Str("venue_id", id).Str("mode", mode).Msg("detail fetched")
	return d, nil
}

// freshness classifies an entry; usable is false past DetailMaxAge.
func (c *VenueCache) freshness(e storedDetail) (Freshness, bool) {
	age := c.now().Sub(e.fetchedAt)
	if c.cfg.DetailMaxAge > 0 && age >= c.cfg.DetailMaxAge {
		return Stale, false
	}
	if age < c.cfg.DetailStaleAfter {
		return Fresh, true
	}
	return Stale, true
}

// Invalidate drops the cached detail for id.
func (c *VenueCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.details, id)
	n := len(c.details)
	c.mu.Unlock()
	metrics.CacheEvictions.WithLabelValues("detail").Inc()
	metrics.CacheSize.WithLabelValues("detail").Set(float64(n))
}

// Sweep removes expired pages and details past DetailMaxAge. It returns the
// number of entries removed.
func (c *VenueCache) Sweep() int {
	removed := c.pages.Sweep()
	if c.cfg.DetailMaxAge <= 0 {
		return removed
	}

	c.mu.Lock()
	for id, e := range c.details {
		if _, usable := c.freshness(e); !usable {
			delete(c.details, id)
			removed++
		}
	}
	n := len(c.details)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues("detail").Set(float64(n))
	return removed
}

// Wait blocks until all background refreshes have finished.
func (c *VenueCache) Wait() {
	c.bg.Wait()
}

// Stats returns current counters.
func (c *VenueCache) Stats() VenueStats {
	c.mu.RLock()
	n := len(c.details)
	c.mu.RUnlock()
	return VenueStats{
		DetailEntries:   n,
		PageEntries:     c.pages.Len(),
		PageHitRate:     c.pages.HitRate(),
		SourceFetches:   c.sourceFetches.Load(),
		Coalesced:       c.coalesced.Load(),
		StaleServed:     c.staleServed.Load(),
		RefreshFailures: c.refreshFailures.Load(),
	}
}
