// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/scoring"
	"github.com/tomtom215/venuescout/internal/source"
)

// scriptedSource serves the sample catalog and lets a test block or fail
// list calls per cursor.
type scriptedSource struct {
	*source.Catalog

	listCalls atomic.Int64

	mu      sync.Mutex
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	fail    map[string]error
}

func newScriptedSource(opts ...source.CatalogOption) *scriptedSource {
	return &scriptedSource{
		Catalog: source.SampleCatalog(opts...),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
		fail:    make(map[string]error),
	}
}

// block makes the next list call for cursor wait until the returned release
// func is called. The started channel is closed when the call arrives.
func (s *scriptedSource) block(cursor string) (started <-chan struct{}, release func()) {
	gate := make(chan struct{})
	st := make(chan struct{})
	s.mu.Lock()
	s.gates[cursor] = gate
	s.started[cursor] = st
	s.mu.Unlock()
	var once sync.Once
	return st, func() { once.Do(func() { close(gate) }) }
}

func (s *scriptedSource) failWith(cursor string, err error) {
	s.mu.Lock()
	if err == nil {
		delete(s.fail, cursor)
	} else {
		s.fail[cursor] = err
	}
	s.mu.Unlock()
}

func (s *scriptedSource) ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (source.ListResult, error) {
	s.listCalls.Add(1)

	s.mu.Lock()
	gate, st, err := s.gates[cursor], s.started[cursor], s.fail[cursor]
	delete(s.gates, cursor)
	delete(s.started, cursor)
	s.mu.Unlock()

	if st != nil {
		close(st)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return source.ListResult{}, err
	}
	return s.Catalog.ListVenues(ctx, prefs, cursor)
}

func newTestController(t *testing.T, src source.Source, prefs preference.Vector) *Controller {
	t.Helper()
	logger := logging.NewTestLogger(io.Discard)
	vc := cache.NewVenueCache(src, cache.DefaultConfig(), cache.WithLogger(logger))
	eng := scoring.MustNewEngine(scoring.DefaultWeights(), logger)
	c := NewController(src, vc, eng, prefs, WithLogger(logger))
	t.Cleanup(func() {
		c.Close()
		c.Wait()
	})
	return c
}

func ids(items []models.ScoredVenue) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Venue.ID
	}
	return out
}

func TestControllerPagination(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if got := c.Snapshot().Status; got != models.FeedLoadingInitial {
		t.Fatalf("initial status = %s, want loading_initial", got)
	}

	snap, err := c.LoadInitial(ctx)
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if len(snap.Items) != 4 || !snap.HasMore || snap.Status != models.FeedIdle {
		t.Fatalf("after LoadInitial: %d items, hasMore=%v, status=%s; want 4, true, idle",
			len(snap.Items), snap.HasMore, snap.Status)
	}

	snap, err = c.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(snap.Items) != 8 || snap.HasMore || snap.Status != models.FeedExhausted {
		t.Fatalf("after LoadMore: %d items, hasMore=%v, status=%s; want 8, false, exhausted",
			len(snap.Items), snap.HasMore, snap.Status)
	}

	calls := src.listCalls.Load()
	snap, err = c.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore on exhausted: %v", err)
	}
	if snap.Status != models.FeedExhausted || len(snap.Items) != 8 {
		t.Errorf("exhausted LoadMore changed state: %s, %d items", snap.Status, len(snap.Items))
	}
	if got := src.listCalls.Load(); got != calls {
		t.Errorf("exhausted LoadMore issued %d fetches", got-calls)
	}
}

func TestControllerLoadInitialOnlyOnce(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("second LoadInitial: %v", err)
	}
	if got := src.listCalls.Load(); got != 1 {
		t.Errorf("list calls = %d, want 1", got)
	}
}

func TestControllerRefreshSupersedesLoadMore(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	first, err := c.LoadInitial(ctx)
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	before := testutil.ToFloat64(metrics.FeedStaleDiscarded)
	started, release := src.block("2")
	moreDone := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.LoadMore(ctx)
		moreDone <- snap
	}()
	<-started

	if got := c.Snapshot().Status; got != models.FeedLoadingMore {
		t.Fatalf("status = %s, want loading_more", got)
	}

	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Status != models.FeedIdle || len(snap.Items) != 4 {
		t.Fatalf("after Refresh: status=%s items=%d, want idle with 4", snap.Status, len(snap.Items))
	}

	// the superseded page 2 response arrives after the refresh applied
	release()
	<-moreDone
	c.Wait()

	final := c.Snapshot()
	if len(final.Items) != 4 {
		t.Errorf("items = %v, want only the refreshed first page", ids(final.Items))
	}
	for i, id := range ids(final.Items) {
		if id != first.Items[i].Venue.ID {
			t.Errorf("item %d = %s, want %s", i, id, first.Items[i].Venue.ID)
		}
	}
	if final.Status != models.FeedIdle || !final.HasMore {
		t.Errorf("final status=%s hasMore=%v, want idle and true", final.Status, final.HasMore)
	}
	if got := testutil.ToFloat64(metrics.FeedStaleDiscarded); got < before+1 {
		t.Errorf("stale discard counter = %v, want at least %v", got, before+1)
	}
}

func TestControllerSupersededPageNotCached(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	started, release := src.block("2")
	moreDone := make(chan struct{})
	go func() {
		defer close(moreDone)
		_, _ = c.LoadMore(ctx)
	}()
	<-started

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	release()
	<-moreDone
	c.Wait()

	// page 2 of the superseded load-more must not be served from the cache
	calls := src.listCalls.Load()
	snap, err := c.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if got := src.listCalls.Load() - calls; got != 1 {
		t.Errorf("LoadMore after refresh issued %d list calls, want 1", got)
	}
	if snap.Status != models.FeedExhausted || len(snap.Items) != 8 {
		t.Errorf("after LoadMore: status=%s items=%d, want exhausted with 8", snap.Status, len(snap.Items))
	}

	if _, ok := c.cache.GetSummaryPage(c.prefs, "2"); !ok {
		t.Error("current page 2 was not cached")
	}
}

func TestControllerRefreshIgnoredWhileRefreshing(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	started, release := src.block("")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Refresh(ctx)
	}()
	<-started

	gen := c.Snapshot().Generation
	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if snap.Generation != gen || snap.Status != models.FeedRefreshing {
		t.Errorf("second Refresh changed session: gen %d->%d status %s", gen, snap.Generation, snap.Status)
	}

	release()
	<-done
	if got := src.listCalls.Load(); got != 2 {
		t.Errorf("list calls = %d, want 2", got)
	}
}

func TestControllerFailureKeepsItemsAndRetry(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	src.failWith("2", fmt.Errorf("gateway timeout: %w", source.ErrUnavailable))
	snap, err := c.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if snap.Status != models.FeedFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if len(snap.Items) != 4 {
		t.Errorf("failure dropped items: %d left", len(snap.Items))
	}
	if snap.ErrorKind != "unavailable" || snap.LastError == "" {
		t.Errorf("error fields = %q / %q", snap.ErrorKind, snap.LastError)
	}

	// LoadMore from failed is a no-op
	calls := src.listCalls.Load()
	if _, err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore from failed: %v", err)
	}
	if src.listCalls.Load() != calls {
		t.Error("LoadMore from failed issued a fetch")
	}

	src.failWith("2", nil)
	snap, err = c.Retry(ctx)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if snap.Status != models.FeedExhausted || len(snap.Items) != 8 {
		t.Errorf("after Retry: status=%s items=%d, want exhausted with 8", snap.Status, len(snap.Items))
	}
	if snap.LastError != "" {
		t.Errorf("LastError = %q after successful retry", snap.LastError)
	}
}

func TestControllerRefreshFailureKeepsItemsAndRetry(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap, err := c.LoadMore(ctx); err != nil || len(snap.Items) != 8 {
		t.Fatalf("LoadMore: items=%d err=%v", len(snap.Items), err)
	}

	src.failWith("", fmt.Errorf("gateway timeout: %w", source.ErrUnavailable))
	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Status != models.FeedFailed || len(snap.Items) != 8 {
		t.Fatalf("after failed Refresh: status=%s items=%d, want failed with 8", snap.Status, len(snap.Items))
	}

	src.failWith("", nil)
	started, release := src.block("")
	retried := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Retry(ctx)
		retried <- snap
	}()
	<-started

	if got := c.Snapshot().Status; got != models.FeedRefreshing {
		t.Errorf("status during Retry = %s, want refreshing", got)
	}

	release()
	snap = <-retried
	if snap.Status != models.FeedIdle || len(snap.Items) != 4 {
		t.Errorf("after Retry: status=%s items=%d, want idle with 4", snap.Status, len(snap.Items))
	}
	if snap.LastError != "" {
		t.Errorf("LastError = %q after successful retry", snap.LastError)
	}

	page := c.Page()
	if len(page.Items) != 4 || !page.HasMore || page.NextCursor != snap.NextCursor {
		t.Errorf("Page() = %d items hasMore=%v next=%q, want the snapshot's", len(page.Items), page.HasMore, page.NextCursor)
	}
}

func TestControllerInitialFailureRetry(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	src.failWith("", source.ErrUnavailable)
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	snap, err := c.LoadInitial(ctx)
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.Status != models.FeedFailed || len(snap.Items) != 0 {
		t.Fatalf("status=%s items=%d, want failed and empty", snap.Status, len(snap.Items))
	}

	src.failWith("", nil)
	snap, err = c.Retry(ctx)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if snap.Status != models.FeedIdle || len(snap.Items) != 4 {
		t.Errorf("after Retry: status=%s items=%d, want idle with 4", snap.Status, len(snap.Items))
	}
}

func TestControllerRefreshFromExhausted(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if _, err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Status != models.FeedIdle || len(snap.Items) != 4 || !snap.HasMore {
		t.Errorf("after Refresh: status=%s items=%d hasMore=%v", snap.Status, len(snap.Items), snap.HasMore)
	}
	// refresh drops cached pages and goes back to the source
	if got := src.listCalls.Load(); got != 3 {
		t.Errorf("list calls = %d, want 3", got)
	}
}

func TestControllerEmptyFirstPage(t *testing.T) {
	t.Parallel()

	empty, err := source.NewCatalog(nil, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	c := newTestController(t, empty, preference.None())

	snap, err := c.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.Status != models.FeedExhausted || snap.HasMore || len(snap.Items) != 0 {
		t.Errorf("empty feed: status=%s hasMore=%v items=%d", snap.Status, snap.HasMore, len(snap.Items))
	}
}

func TestControllerRanksEachPage(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	prefs := preference.Vector{
		VenueType:  models.VenueTypeBar,
		Atmosphere: models.AtmosphereElegant,
		Music:      models.MusicJazz,
		Budget:     150,
		GroupSize:  2,
	}
	c := newTestController(t, src, prefs)

	snap, err := c.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	for i := 1; i < len(snap.Items); i++ {
		if snap.Items[i].Score > snap.Items[i-1].Score {
			t.Errorf("page not ranked: %v", ids(snap.Items))
		}
	}
	if snap.Items[0].Venue.Name != "The Speakeasy" {
		t.Errorf("top venue = %q, want The Speakeasy", snap.Items[0].Venue.Name)
	}
}

func TestControllerDeduplicatesAcrossPages(t *testing.T) {
	t.Parallel()

	cat := source.SampleCatalog()
	details := cat.Details()
	summaries := make([]models.VenueSummary, 0, len(details))
	for i := range details {
		summaries = append(summaries, details[i].Summary())
	}

	// page 2 repeats venue "1" from page 1
	dup := &repeatingSource{Catalog: cat, extra: summaries[0]}
	c := newTestController(t, dup, preference.None())
	ctx := context.Background()

	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	snap, err := c.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	seen := map[string]bool{}
	for _, id := range ids(snap.Items) {
		if seen[id] {
			t.Errorf("duplicate venue %s in %v", id, ids(snap.Items))
		}
		seen[id] = true
	}
	if len(snap.Items) != 8 {
		t.Errorf("items = %d, want 8", len(snap.Items))
	}
}

type repeatingSource struct {
	*source.Catalog
	extra models.VenueSummary
}

func (s *repeatingSource) ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (source.ListResult, error) {
	res, err := s.Catalog.ListVenues(ctx, prefs, cursor)
	if err == nil && cursor != "" {
		res.Items = append(res.Items, s.extra)
	}
	return res, err
}

func TestControllerSubscribe(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newScriptedSource(), preference.None())
	ch, cancel := c.Subscribe(16)
	defer cancel()

	if _, err := c.LoadInitial(context.Background()); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	// current state first, then every applied change up to idle
	var statuses []models.FeedStatus
	timeout := time.After(time.Second)
	for len(statuses) == 0 || statuses[len(statuses)-1] != models.FeedIdle {
		select {
		case s := <-ch:
			statuses = append(statuses, s.Status)
		case <-timeout:
			t.Fatalf("timed out, got %v", statuses)
		}
	}
	for _, s := range statuses[:len(statuses)-1] {
		if s != models.FeedLoadingInitial {
			t.Errorf("statuses = %v, want loading_initial until idle", statuses)
		}
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestControllerSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newScriptedSource(), preference.None())
	_, cancel := c.Subscribe(1)
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if _, err := c.LoadInitial(ctx); err != nil {
		t.Fatalf("LoadInitial blocked on a full subscriber: %v", err)
	}
	if _, err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore blocked on a full subscriber: %v", err)
	}
}

func TestControllerClosed(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newScriptedSource(), preference.None())
	c.Close()

	if _, err := c.LoadInitial(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("LoadInitial err = %v, want ErrSessionClosed", err)
	}
	if _, err := c.GetDetail(context.Background(), "1"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("GetDetail err = %v, want ErrSessionClosed", err)
	}
	ch, _ := c.Subscribe(1)
	if _, ok := <-ch; ok {
		t.Error("Subscribe on closed session should return a closed channel")
	}
}

func TestControllerGetDetail(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newScriptedSource(), preference.None())

	d, err := c.GetDetail(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if d.Name != "The Speakeasy" {
		t.Errorf("Name = %q", d.Name)
	}

	_, err = c.GetDetail(context.Background(), "404")
	if !errors.Is(err, source.ErrNotFound) || !errors.Is(err, cache.ErrFetchFailed) {
		t.Errorf("err = %v, want NotFound fetch failure", err)
	}
}

func TestControllerCallerCancelStillApplies(t *testing.T) {
	t.Parallel()

	src := newScriptedSource()
	c := newTestController(t, src, preference.None())

	started, release := src.block("")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.LoadInitial(ctx)
		done <- err
	}()
	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	release()
	c.Wait()
	if snap := c.Snapshot(); snap.Status != models.FeedIdle || len(snap.Items) != 4 {
		t.Errorf("status=%s items=%d, want idle with 4", snap.Status, len(snap.Items))
	}
}
