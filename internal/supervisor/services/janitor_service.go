// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SweepFunc removes expired state and reports how much it removed.
// (*cache.VenueCache).Sweep and (*feed.Registry).EvictIdle satisfy it.
type SweepFunc func() int

// JanitorService runs a sweep on a fixed interval until canceled.
type JanitorService struct {
	name     string
	interval time.Duration
	sweep    SweepFunc
	logger   zerolog.Logger
}

// NewJanitorService creates a janitor. A non-positive interval means one
// minute.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitorService(name string, interval time.Duration, sweep SweepFunc, logger zerolog.Logger) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{
		name:     name,
		interval: interval,
		sweep:    sweep,
		logger:   logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.sweep(); n > 0 {
				j.logger.Debug().Int("removed", n).Msg("Sweep completed")
			}
		}
	}
}

func (j *JanitorService) String() string {
	return j.name
}
