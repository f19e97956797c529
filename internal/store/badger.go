// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package store persists the venue catalog in BadgerDB and serves it as a
// source.Source.
//
// Layout:
//
//	venue:order:<8-digit position> -> id
//	venue:summary:<id>             -> VenueSummary (JSON)
//	venue:detail:<id>              -> VenueDetail (JSON), optional
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/source"
)

// Key prefixes for BadgerDB storage
const (
	orderKeyPrefix   = "venue:order:"
	summaryKeyPrefix = "venue:summary:"
	detailKeyPrefix  = "venue:detail:"
	venueKeyPrefix   = "venue:"
)

// Config configures the store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	PageSize int    `koanf:"page_size"`
}

// BadgerSource is a persistent venue catalog. Cursors are 1-based page
// numbers, the same as source.Catalog.
type BadgerSource struct {
	db       *badger.DB
	pageSize int
	logger   zerolog.Logger
}

// Open opens or creates the store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*BadgerSource, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store path is required unless in_memory is set")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{logger: logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open venue store: %w", err)
	}
	return New(db, cfg.PageSize, logger), nil
}

// New wraps an open database. The caller keeps ownership of db unless it
// calls Close.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *badger.DB, pageSize int, logger zerolog.Logger) *BadgerSource {
	if pageSize <= 0 {
		pageSize = source.DefaultPageSize
	}
	return &BadgerSource{
		db:       db,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "store").Logger(),
	}
}

// Close closes the database.
func (s *BadgerSource) Close() error {
	return s.db.Close()
}

// Seed replaces the stored catalog with the given venues. Details are
// optional per venue.
func (s *BadgerSource) Seed(ctx context.Context, summaries []models.VenueSummary, details []models.VenueDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(venueKeyPrefix)); err != nil {
		return fmt.Errorf("clear venue store: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range summaries {
		data, err := json.Marshal(&summaries[i])
		if err != nil {
			return fmt.Errorf("marshal venue %q: %w", summaries[i].ID, err)
		}
		id := summaries[i].ID
		if err := wb.Set(orderKey(i), []byte(id)); err != nil {
			return fmt.Errorf("set order: %w", err)
		}
		if err := wb.Set([]byte(summaryKeyPrefix+id), data); err != nil {
			return fmt.Errorf("set summary: %w", err)
		}
	}
	for i := range details {
		data, err := json.Marshal(&details[i])
		if err != nil {
			return fmt.Errorf("marshal detail %q: %w", details[i].ID, err)
		}
		if err := wb.Set([]byte(detailKeyPrefix+details[i].ID), data); err != nil {
			return fmt.Errorf("set detail: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("write venue store: %w", err)
	}

	s.logger.Info().Int("venues", len(summaries)).Int("details", len(details)).Msg("venue store seeded")
	return nil
}

// SeedFromCatalog copies every venue of c, including placeholder details.
func (s *BadgerSource) SeedFromCatalog(ctx context.Context, c *source.Catalog) error {
	details := c.Details()
	summaries := make([]models.VenueSummary, len(details))
	for i := range details {
		summaries[i] = details[i].Summary()
	}
	return s.Seed(ctx, summaries, details)
}

// Count returns the number of stored venues.
func (s *BadgerSource) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(orderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return n, nil
}

// ListVenues returns the page addressed by cursor.
func (s *BadgerSource) ListVenues(ctx context.Context, _ preference.Vector, cursor string) (source.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return source.ListResult{}, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}

	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return source.ListResult{}, fmt.Errorf("%w %q", source.ErrInvalidCursor, cursor)
		}
		page = n
	}
	skip := (page - 1) * s.pageSize

	res := source.ListResult{Items: []models.VenueSummary{}}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(orderKeyPrefix)
		pos := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if pos < skip {
				pos++
				continue
			}
			if len(res.Items) == s.pageSize {
				res.HasMore = true
				break
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var v models.VenueSummary
			if err := getJSON(txn, summaryKeyPrefix+string(id), &v); err != nil {
				return fmt.Errorf("venue %q: %w", id, err)
			}
			res.Items = append(res.Items, v)
			pos++
		}
		return nil
	})
	if err != nil {
		return source.ListResult{}, fmt.Errorf("%w: list venues: %w", source.ErrUnavailable, err)
	}
	if res.HasMore {
		res.NextCursor = strconv.Itoa(page + 1)
	}
	return res, nil
}

// GetVenueDetail returns the stored detail, or a placeholder detail built
// from the summary when only the summary is stored.
func (s *BadgerSource) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.VenueDetail{}, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}

	var (
		d     models.VenueDetail
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		err := getJSON(txn, detailKeyPrefix+id, &d)
		if err == nil {
			found = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		var sum models.VenueSummary
		if err := getJSON(txn, summaryKeyPrefix+id, &sum); err != nil {
			return err
		}
		d = source.FallbackDetail(sum)
		found = true
		return nil
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound) || (err == nil && !found):
		return models.VenueDetail{}, fmt.Errorf("venue %q: %w", id, source.ErrNotFound)
	case err != nil:
		return models.VenueDetail{}, fmt.Errorf("%w: get venue %q: %w", source.ErrUnavailable, id, err)
	}
	return d, nil
}

func getJSON(txn *badger.Txn, key string, dst interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func orderKey(pos int) []byte {
	return []byte(fmt.Sprintf("%s%08d", orderKeyPrefix, pos))
}

// badgerLogger routes BadgerDB's logger through zerolog. Badger's info
// output is chatty, so it is logged at debug.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}

var _ source.Source = (*BadgerSource)(nil)
