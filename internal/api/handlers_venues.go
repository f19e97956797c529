// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// VenueView is a venue detail with its rating rendered as stars.
type VenueView struct {
	models.VenueDetail
	Stars string `json:"stars"`
}

// listVenuesQuery holds the query parameters of GET /api/v1/venues.
type listVenuesQuery struct {
	Cursor     string `validate:"max=256"`
	Type       string `validate:"omitempty,venuetype"`
	Atmosphere string `validate:"omitempty,atmosphere"`
	Music      string `validate:"omitempty,music"`
	Budget     float64
	Location   string `validate:"max=200"`
}

func (q *listVenuesQuery) vector() preference.Vector {
	v := preference.None()
	v.VenueType, _ = models.ParseVenueType(q.Type)
	v.Atmosphere, _ = models.ParseAtmosphere(q.Atmosphere)
	v.Music, _ = models.ParseMusic(q.Music)
	v.Budget = q.Budget
	v.Location = strings.TrimSpace(q.Location)
	return v
}

// ListVenues serves one raw source page in the ListResult format. The
// facet parameters are passed to the source as retrieval hints; items are
// not ranked. An HTTP venue source pointed at this server reads it back.
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	q := listVenuesQuery{
		Cursor:     query.Get("cursor"),
		Type:       query.Get("type"),
		Atmosphere: query.Get("atmosphere"),
		Music:      query.Get("music"),
		Location:   query.Get("location"),
	}
	if b := query.Get("budget"); b != "" {
		budget, err := strconv.ParseFloat(b, 64)
		if err != nil || budget < 0 {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "budget must be a non-negative number", nil)
			return
		}
		q.Budget = budget
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	res, err := h.src.ListVenues(r.Context(), q.vector(), q.Cursor)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success(res, start))
}

// GetVenue returns a venue detail through the shared detail cache.
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	h.respondVenue(w, r, chi.URLParam(r, "id"), h.venues.GetDetail)
}

// respondVenue answers with a detail. Metadata.Cached reports whether the
// detail was already cached before this request.
func (h *Handler) respondVenue(w http.ResponseWriter, r *http.Request, id string, get func(context.Context, string) (models.VenueDetail, error)) {
	start := time.Now()
	if id == "" || len(id) > 128 {
		respondError(w, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid venue id", nil)
		return
	}

	_, cached := h.venues.PeekDetail(id)
	detail, err := get(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := success(VenueView{VenueDetail: detail, Stars: models.RenderStars(detail.Rating)}, start)
	resp.Metadata.Cached = cached
	respondJSONWithETag(w, r, resp)
}
