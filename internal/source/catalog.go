// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package source

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/validation"
)

// DefaultPageSize is the number of summaries per catalog page.
const DefaultPageSize = 4

// Placeholder values used when a venue has no detail record.
const (
	FallbackAddress = "123 Example St, Cityville"
	FallbackPhone   = "+1 (555) 123-4567"
	FallbackWebsite = "https://example.com"
	FallbackHours   = "Call for hours"
)

//go:embed catalog.json
var sampleCatalog []byte

// SampleCatalogJSON returns the embedded eight-venue sample catalog.
func SampleCatalogJSON() []byte {
	return append([]byte(nil), sampleCatalog...)
}

// catalogFile is the on-disk layout of a catalog. Detail entries carry only
// the detail fields plus the id; their summary fields come from summaries.
type catalogFile struct {
	Summaries []models.VenueSummary `json:"summaries"`
	Details   []models.VenueDetail  `json:"details"`
}

// Catalog is an immutable in-memory venue source with page-number cursors.
type Catalog struct {
	summaries []models.VenueSummary
	index     map[string]int
	details   map[string]models.VenueDetail
	pageSize  int
	latency   time.Duration
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithPageSize sets the page size. Values below 1 are ignored.
func WithPageSize(n int) CatalogOption {
	return func(c *Catalog) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLatency delays every call, honouring context cancellation.
func WithLatency(d time.Duration) CatalogOption {
	return func(c *Catalog) { c.latency = d }
}

// NewCatalog builds a catalog from summaries and the detail records that
// exist. Summaries keep their order; ids must be unique and valid.
func NewCatalog(summaries []models.VenueSummary, details []models.VenueDetail, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		summaries: make([]models.VenueSummary, 0, len(summaries)),
		index:     make(map[string]int, len(summaries)),
		details:   make(map[string]models.VenueDetail, len(details)),
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range summaries {
		s := summaries[i]
		if verr := validation.ValidateStruct(&s); verr != nil {
			return nil, fmt.Errorf("venue %q: %w", s.ID, verr)
		}
		if _, dup := c.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate venue id %q", s.ID)
		}
		c.index[s.ID] = len(c.summaries)
		c.summaries = append(c.summaries, s)
	}

	for i := range details {
		d := details[i]
		pos, ok := c.index[d.ID]
		if !ok {
			return nil, fmt.Errorf("detail for unknown venue id %q", d.ID)
		}
		address := d.Address
		d.VenueSummary = c.summaries[pos]
		if address != "" {
			d.Address = address
			c.summaries[pos].Address = address
		}
		d.Amenities = models.NormalizeAmenities(d.Amenities)
		c.details[d.ID] = d
	}
	return c, nil
}

// LoadCatalog parses a catalog document.
func LoadCatalog(data []byte, opts ...CatalogOption) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return NewCatalog(f.Summaries, f.Details, opts...)
}

// SampleCatalog returns the embedded sample catalog.
func SampleCatalog(opts ...CatalogOption) *Catalog {
	c, err := LoadCatalog(sampleCatalog, opts...)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Len returns the number of venues.
func (c *Catalog) Len() int { return len(c.summaries) }

// PageSize returns the configured page size.
func (c *Catalog) PageSize() int { return c.pageSize }

// ListVenues returns the page addressed by cursor. Cursors are 1-based page
// numbers; "" is page 1.
func (c *Catalog) ListVenues(ctx context.Context, _ preference.Vector, cursor string) (ListResult, error) {
	if err := c.wait(ctx); err != nil {
		return ListResult{}, err
	}

	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return ListResult{}, fmt.Errorf("%w %q", ErrInvalidCursor, cursor)
		}
		page = n
	}

	start := (page - 1) * c.pageSize
	if start > len(c.summaries) {
		start = len(c.summaries)
	}
	end := start + c.pageSize
	if end > len(c.summaries) {
		end = len(c.summaries)
	}

	res := ListResult{
		Items:   append([]models.VenueSummary{}, c.summaries[start:end]...),
		HasMore: end < len(c.summaries),
	}
	if res.HasMore {
		res.NextCursor = strconv.Itoa(page + 1)
	}
	return res, nil
}

// GetVenueDetail returns the detail record, or a placeholder detail built
// from the summary when the catalog has none.
func (c *Catalog) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	if err := c.wait(ctx); err != nil {
		return models.VenueDetail{}, err
	}
	if d, ok := c.details[id]; ok {
		return d.Clone(), nil
	}
	pos, ok := c.index[id]
	if !ok {
		return models.VenueDetail{}, fmt.Errorf("venue %q: %w", id, ErrNotFound)
	}
	return FallbackDetail(c.summaries[pos]), nil
}

// Details returns the detail of every venue in catalog order, including
// placeholder details. It is used to seed persistent stores.
func (c *Catalog) Details() []models.VenueDetail {
	out := make([]models.VenueDetail, 0, len(c.summaries))
	for i := range c.summaries {
		if d, ok := c.details[c.summaries[i].ID]; ok {
			out = append(out, d.Clone())
			continue
		}
		out = append(out, FallbackDetail(c.summaries[i]))
	}
	return out
}

func (c *Catalog) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case <-t.C:
		return nil
	}
}

// FallbackDetail synthesizes a detail record from a summary alone.
//
//nolint:gocritic // hugeParam: the summary is embedded in the result
func FallbackDetail(s models.VenueSummary) models.VenueDetail {
	d := models.VenueDetail{
		VenueSummary: s,
		Description:  s.ShortDescription,
		Gallery:      []string{},
		ContactPhone: FallbackPhone,
		Website:      FallbackWebsite,
		HoursByDay:   []string{FallbackHours},
		Amenities:    []string{},
		Reviews:      []models.Review{},
	}
	if d.Address == "" {
		d.Address = FallbackAddress
	}
	return d
}

var _ Source = (*Catalog)(nil)
