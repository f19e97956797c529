// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/venuescout/internal/app"
	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/scoring"
)

// surveyFlags names the flags that make up a survey submission.
var surveyFlags = []string{"type", "atmosphere", "music", "budget", "group-size", "location", "food", "notes"}

type rankOptions struct {
	answers  preference.RawAnswers
	source   string
	pages    int
	partial  bool
	jsonOut  bool
	maxItems int
}

func newRankCmd(opts *cliOptions) *cobra.Command {
	ro := &rankOptions{answers: preference.DefaultAnswers()}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank venues for a survey without running the server",
		Long: `Rank opens a discovery session against the configured venue source, loads
up to --pages pages and prints the ranked feed. With no survey flags the feed
is ranked without preferences.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if ro.source != "" {
				cfg.Source.Kind = ro.source
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			prefs := preference.None()
			if surveyGiven(cmd) {
				prefs, err = preference.Build(ro.answers)
				var verr *preference.ValidationError
				if errors.As(err, &verr) && !ro.partial {
					return fmt.Errorf("%w (use --partial to rank anyway)", err)
				}
			}

			ctx := cmd.Context()
			sources, err := app.BuildSources(ctx, &cfg.Source, logging.WithComponent("source"))
			if err != nil {
				return err
			}
			defer func() { _ = sources.Close() }()

			engine, err := scoring.NewEngine(app.ScoringWeights(cfg.Scoring), logging.WithComponent("scoring"))
			if err != nil {
				return err
			}
			venues := cache.NewVenueCache(sources.Source, cache.Config{
				PageTTL:          cfg.Cache.PageTTL,
				DetailStaleAfter: cfg.Cache.DetailStaleAfter,
				DetailMaxAge:     cfg.Cache.DetailMaxAge,
				FetchTimeout:     cfg.Cache.FetchTimeout,
			}, cache.WithLogger(logging.WithComponent("cache")))
			defer venues.Wait()

			ctl := feed.NewController(sources.Source, venues, engine, prefs,
				feed.WithLogger(logging.WithComponent("feed")),
				feed.WithFetchTimeout(cfg.Feed.FetchTimeout),
			)
			defer func() {
				ctl.Close()
				ctl.Wait()
			}()

			snap, err := rankPages(ctx, ctl, ro.pages)
			if err != nil {
				return err
			}
			if snap.Status == models.FeedFailed {
				return fmt.Errorf("venue source failed: %s", snap.LastError)
			}

			page := ctl.Page()
			if ro.maxItems > 0 && len(page.Items) > ro.maxItems {
				page.Items = page.Items[:ro.maxItems]
			}
			if ro.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(page)
			}
			return printRanking(cmd.OutOrStdout(), page.Items, page.HasMore)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ro.answers.VenueType, "type", "", "venue type: cafe, restaurant, bar, club, lounge or pub")
	f.StringVar(&ro.answers.Atmosphere, "atmosphere", "", "atmosphere: casual, elegant, romantic, energetic, cozy or trendy")
	f.StringVar(&ro.answers.Music, "music", ro.answers.Music, "music: live, dj, acoustic, jazz, rock, pop, classical or none")
	f.Float64Var(&ro.answers.Budget, "budget", ro.answers.Budget, "budget per person in dollars")
	f.IntVar(&ro.answers.GroupSize, "group-size", ro.answers.GroupSize, "number of people")
	f.StringVar(&ro.answers.Location, "location", "", "preferred area")
	f.BoolVar(&ro.answers.FoodRequired, "food", false, "food is required")
	f.StringVar(&ro.answers.AdditionalNotes, "notes", "", "free-text notes")
	f.StringVar(&ro.source, "source", "", "venue source kind: catalog, http or badger")
	f.IntVar(&ro.pages, "pages", 1, "pages to load; 0 loads every page")
	f.IntVar(&ro.maxItems, "limit", 0, "print at most this many venues; 0 prints all")
	f.BoolVar(&ro.partial, "partial", false, "rank with the valid facets of an incomplete survey")
	f.BoolVar(&ro.jsonOut, "json", false, "print the ranked feed page as JSON")
	return cmd
}

func surveyGiven(cmd *cobra.Command) bool {
	for _, name := range surveyFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// rankPages loads the first page, then load-more until pages are loaded,
// the feed is exhausted or a fetch fails.
func rankPages(ctx context.Context, ctl *feed.Controller, pages int) (feed.Snapshot, error) {
	snap, err := ctl.LoadInitial(ctx)
	for loaded := 1; err == nil && snap.Status == models.FeedIdle && snap.HasMore; loaded++ {
		if pages > 0 && loaded >= pages {
			break
		}
		snap, err = ctl.LoadMore(ctx)
	}
	return snap, err
}

func printRanking(w io.Writer, items []models.ScoredVenue, hasMore bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tVENUE\tRATING\tPRICE\tDISTANCE\tMATCHED")
	for i := range items {
		v := &items[i].Venue
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s %.1f\t%s\t%s\t%s\n",
			i+1,
			items[i].Score,
			v.Name,
			models.RenderStars(v.Rating), v.Rating,
			v.PriceTier,
			v.DistanceText,
			strings.Join(items[i].MatchedDimensions, ","),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if hasMore {
		fmt.Fprintln(w, "more venues available (use --pages 0 to load all)")
	}
	return nil
}
