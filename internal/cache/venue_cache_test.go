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
	"testing"
	"time"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/source"
)

// stubFetcher counts calls and can block or fail on demand.
type stubFetcher struct {
	calls   atomic.Int64
	started chan struct{}

	mu   sync.Mutex
	gate chan struct{}
	err  error
	name string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{started: make(chan struct{}, 16), name: "The Speakeasy"}
}

func (f *stubFetcher) set(gate chan struct{}, err error) {
	f.mu.Lock()
	f.gate, f.err = gate, err
	f.mu.Unlock()
}

func (f *stubFetcher) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	f.calls.Add(1)
	f.mu.Lock()
	gate, err, name := f.gate, f.err, f.name
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.VenueDetail{}, ctx.Err()
		}
	}
	if err != nil {
		return models.VenueDetail{}, err
	}
	return models.VenueDetail{
		VenueSummary: models.VenueSummary{ID: id, Name: name, Rating: 4.8},
		Amenities:    []string{"Craft Cocktails", "Live Jazz"},
	}, nil
}

func newTestVenueCache(f *stubFetcher) (*VenueCache, *fakeClock) {
	clock := newFakeClock()
	return NewVenueCache(f, DefaultConfig(), WithClock(clock.Now)), clock
}

func TestVenueCacheCoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	gate := make(chan struct{})
	f.set(gate, nil)
	vc, _ := newTestVenueCache(f)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := vc.GetDetail(context.Background(), "2")
			if err == nil && d.Name != "The Speakeasy" {
				err = fmt.Errorf("unexpected name %q", d.Name)
			}
			errs <- err
		}()
	}

	<-f.started
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("GetDetail: %v", err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}
}

func TestVenueCacheFreshHitSkipsSource(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	vc, clock := newTestVenueCache(f)
	ctx := context.Background()

	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	clock.Advance(90 * time.Second)
	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	vc.Wait()

	if got := f.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}
	e, ok := vc.PeekDetail("2")
	if !ok || e.State != Fresh {
		t.Errorf("PeekDetail = %+v, %v; want fresh entry", e, ok)
	}
}

func TestVenueCacheStaleServesAndRefreshesOnce(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	vc, clock := newTestVenueCache(f)
	ctx := context.Background()

	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}

	gate := make(chan struct{})
	f.set(gate, nil)
	f.mu.Lock()
	f.name = "The Speakeasy (renovated)"
	f.mu.Unlock()
	clock.Advance(6 * time.Minute)

	for i := 0; i < 5; i++ {
		d, err := vc.GetDetail(ctx, "2")
		if err != nil {
			t.Fatalf("stale GetDetail: %v", err)
		}
		if d.Name != "The Speakeasy" {
			t.Errorf("stale GetDetail name = %q, want cached value", d.Name)
		}
	}

	close(gate)
	vc.Wait()

	if got := f.calls.Load(); got != 2 {
		t.Errorf("source calls = %d, want 2 (initial + one refresh)", got)
	}
	e, ok := vc.PeekDetail("2")
	if !ok {
		t.Fatal("expected refreshed entry")
	}
	if e.State != Fresh || e.Value.Name != "The Speakeasy (renovated)" {
		t.Errorf("refreshed entry = %q (%s), want renovated and fresh", e.Value.Name, e.State)
	}
	if got := vc.Stats().StaleServed; got != 5 {
		t.Errorf("StaleServed = %d, want 5", got)
	}
}

func TestVenueCacheRefreshFailureKeepsStaleValue(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	vc, clock := newTestVenueCache(f)
	ctx := context.Background()

	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	f.set(nil, fmt.Errorf("upstream 503: %w", source.ErrUnavailable))
	clock.Advance(6 * time.Minute)

	d, err := vc.GetDetail(ctx, "2")
	if err != nil {
		t.Fatalf("stale GetDetail returned error: %v", err)
	}
	if d.ID != "2" {
		t.Errorf("ID = %q, want 2", d.ID)
	}
	vc.Wait()

	if got := vc.Stats().RefreshFailures; got != 1 {
		t.Errorf("RefreshFailures = %d, want 1", got)
	}
	e, ok := vc.PeekDetail("2")
	if !ok || e.State != Stale {
		t.Errorf("PeekDetail = %+v, %v; want stale entry kept", e, ok)
	}
}

func TestVenueCacheColdFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"not found", fmt.Errorf("venue 99: %w", source.ErrNotFound), source.ErrNotFound},
		{"unavailable", fmt.Errorf("dial: %w", source.ErrUnavailable), source.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newStubFetcher()
			f.set(nil, tt.err)
			vc, _ := newTestVenueCache(f)

			_, err := vc.GetDetail(context.Background(), "99")
			if !errors.Is(err, ErrFetchFailed) {
				t.Errorf("err = %v, want ErrFetchFailed", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			var fe *FetchError
			if !errors.As(err, &fe) || fe.ID != "99" {
				t.Errorf("err = %v, want *FetchError for 99", err)
			}
			if _, ok := vc.PeekDetail("99"); ok {
				t.Error("failed fetch must not be cached")
			}
		})
	}
}

func TestVenueCacheCallerCancelDoesNotAbortSharedFetch(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	gate := make(chan struct{})
	f.set(gate, nil)
	vc, _ := newTestVenueCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := vc.GetDetail(ctx, "1")
		done <- err
	}()

	<-f.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}

	close(gate)
	d, err := vc.GetDetail(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetDetail after cancel: %v", err)
	}
	if d.ID != "1" {
		t.Errorf("ID = %q, want 1", d.ID)
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}
}

func TestVenueCacheMaxAge(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.DetailMaxAge = time.Hour
	vc := NewVenueCache(f, cfg, WithClock(clock.Now))

	if _, err := vc.GetDetail(context.Background(), "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	clock.Advance(2 * time.Hour)

	if _, ok := vc.PeekDetail("2"); ok {
		t.Error("expected entry past max age to be hidden")
	}
	if removed := vc.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if vc.Stats().DetailEntries != 0 {
		t.Error("expected detail to be swept")
	}
}

func TestVenueCacheReturnsCopies(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	vc, _ := newTestVenueCache(f)

	d, err := vc.GetDetail(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	d.Amenities[0] = "mutated"

	e, _ := vc.PeekDetail("2")
	if e.Value.Amenities[0] != "Craft Cocktails" {
		t.Errorf("cached amenities mutated through returned value: %v", e.Value.Amenities)
	}
}

func TestVenueCacheInvalidate(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	vc, _ := newTestVenueCache(f)
	ctx := context.Background()

	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	vc.Invalidate("2")
	if _, err := vc.GetDetail(ctx, "2"); err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Errorf("source calls = %d, want 2", got)
	}
}

func TestVenueCacheSummaryPages(t *testing.T) {
	t.Parallel()

	vc, clock := newTestVenueCache(newStubFetcher())
	bar := preference.Vector{VenueType: models.VenueTypeBar, Atmosphere: models.AtmosphereElegant, Budget: 50, GroupSize: 2}
	cafe := preference.Vector{VenueType: models.VenueTypeCafe, Budget: 50, GroupSize: 2}

	page := models.FeedPage{
		Items:      []models.ScoredVenue{{Venue: models.VenueSummary{ID: "2"}, Score: 1}},
		NextCursor: "2",
		HasMore:    true,
	}
	vc.PutSummaryPage(bar, "", page)

	got, ok := vc.GetSummaryPage(bar, "")
	if !ok || len(got.Items) != 1 || got.NextCursor != "2" {
		t.Fatalf("GetSummaryPage = %+v, %v", got, ok)
	}
	if _, ok := vc.GetSummaryPage(cafe, ""); ok {
		t.Error("different preferences must not share a page")
	}
	if _, ok := vc.GetSummaryPage(bar, "2"); ok {
		t.Error("different cursor must not share a page")
	}

	clock.Advance(61 * time.Second)
	if _, ok := vc.GetSummaryPage(bar, ""); ok {
		t.Error("page should expire after 60s")
	}

	vc.PutSummaryPage(bar, "", page)
	vc.InvalidatePages()
	if _, ok := vc.GetSummaryPage(bar, ""); ok {
		t.Error("InvalidatePages should drop pages")
	}
}
