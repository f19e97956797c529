// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/scoring"
	"github.com/tomtom215/venuescout/internal/source"
	ws "github.com/tomtom215/venuescout/internal/websocket"
)

// envelope is APIResponse with a typed payload.
type envelope[T any] struct {
	Status   string           `json:"status"`
	Data     T                `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testEnv struct {
	router   http.Handler
	registry *feed.Registry
	venues   *cache.VenueCache
	hub      *ws.Hub
}

type envOption func(*Deps)

func withBreaker(b BreakerState) envOption {
	return func(d *Deps) { d.Breaker = b }
}

// newTestEnv wires the full stack over src with rate limiting disabled.
func newTestEnv(t *testing.T, src source.Source, opts ...envOption) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Security.RateLimitDisabled = true

	vc := cache.NewVenueCache(src, cache.DefaultConfig())
	eng := scoring.MustNewEngine(scoring.DefaultWeights(), zerolog.Nop())
	reg := feed.NewRegistry(src, vc, eng, feed.RegistryConfig{MaxSessions: 10}, zerolog.Nop())
	hub := ws.NewHub(ws.DefaultSubscriberBuffer, zerolog.Nop())

	deps := Deps{
		Config:   cfg,
		Registry: reg,
		Venues:   vc,
		Source:   src,
		Hub:      hub,
		Version:  "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	t.Cleanup(func() {
		reg.CloseAll()
		vc.Wait()
	})

	return &testEnv{
		router:   NewRouter(NewHandler(deps), cfg).SetupChi(),
		registry: reg,
		venues:   vc,
		hub:      hub,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decode[json.RawMessage](t, rec)
	if env.Status != "error" || env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
}

// failingSource fails every call as unavailable.
type failingSource struct{}

func (failingSource) ListVenues(context.Context, preference.Vector, string) (source.ListResult, error) {
	return source.ListResult{}, fmt.Errorf("%w: upstream down", source.ErrUnavailable)
}

func (failingSource) GetVenueDetail(context.Context, string) (models.VenueDetail, error) {
	return models.VenueDetail{}, fmt.Errorf("%w: upstream down", source.ErrUnavailable)
}

type fixedBreaker gobreaker.State

func (b fixedBreaker) State() gobreaker.State { return gobreaker.State(b) }

const speakeasySurvey = `{"venueType":"bar","atmosphere":"elegant","music":"jazz","budget":150,"location":"Cityville"}`
