// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
http.go - REST client for a remote venue service

The remote service answers with the Venuescout response envelope:

	GET {base}/venues?cursor=2&type=bar&atmosphere=elegant&music=jazz&budget=150&location=
	GET {base}/venues/{id}

A Venuescout server exposes both endpoints under /api/v1, so one instance can
be the venue source of another.
*/

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
	UserAgent string
}

// HTTPSource is a Source backed by a remote REST service.
type HTTPSource struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// envelope mirrors models.APIResponse with a typed payload.
type envelope[T any] struct {
	Status string           `json:"status"`
	Data   T                `json:"data"`
	Error  *models.APIError `json:"error,omitempty"`
}

// NewHTTPSource creates a REST venue source.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "venuescout"
	}

	s := &HTTPSource{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// ListVenues fetches one page, passing the scored facets as query hints.
func (s *HTTPSource) ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (ListResult, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	setIfNotEmpty(q, "type", string(prefs.VenueType))
	setIfNotEmpty(q, "atmosphere", string(prefs.Atmosphere))
	setIfNotEmpty(q, "music", string(prefs.Music))
	setIfNotEmpty(q, "location", prefs.Location)
	if prefs.Budget > 0 {
		q.Set("budget", strconv.FormatFloat(prefs.Budget, 'f', -1, 64))
	}

	endpoint := "/venues"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var out envelope[ListResult]
	if err := s.getJSON(ctx, endpoint, &out); err != nil {
		return ListResult{}, fmt.Errorf("list venues: %w", err)
	}
	if !out.Data.HasMore {
		out.Data.NextCursor = ""
	}
	return out.Data, nil
}

// GetVenueDetail fetches one venue's detail record.
func (s *HTTPSource) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	var out envelope[models.VenueDetail]
	if err := s.getJSON(ctx, "/venues/"+url.PathEscape(id), &out); err != nil {
		return models.VenueDetail{}, fmt.Errorf("venue %q: %w", id, err)
	}
	return out.Data, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, dst interface{}) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrUnavailable, err)
	}
	return nil
}

// statusError maps a non-200 response onto the source error taxonomy.
func statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if err != nil {
		msg = "failed to read body"
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest && errorCode(body) == models.ErrCodeInvalidCursor:
		sentinel = ErrInvalidCursor
	case resp.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode >= 500:
		sentinel = ErrUnavailable
	default:
		sentinel = errors.New("unexpected response")
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, msg)
}

// errorCode extracts the envelope error code from a response body, or "".
func errorCode(body []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

var _ Source = (*HTTPSource)(nil)
