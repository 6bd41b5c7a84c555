//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

// Source is the query surface the HTTP API needs. *Reader implements it.
type Source interface {
	DailyVolume(ctx context.Context, f Filter) ([]DailyVolume, error)
	FleetAnalysis(ctx context.Context, from, to time.Time) ([]FleetLoad, error)
	Summary(ctx context.Context, f Filter) (Summary, error)
	Locations(ctx context.Context) ([]string, error)
}

var _ Source = (*Reader)(nil)

type handlers struct {
	src Source
}

// NewRouter returns the read-only JSON API.
//
//	GET /healthz
//	GET /api/summary    ?from=YYYY-MM-DD&to=YYYY-MM-DD&location=...
//	GET /api/daily      ?from&to&location
//	GET /api/fleet      ?from&to
//	GET /api/locations
func NewRouter(src Source) http.Handler {
	h := &handlers{src: src}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", h.apiSummary)
		r.Get("/daily", h.apiDaily)
		r.Get("/fleet", h.apiFleet)
		r.Get("/locations", h.apiLocations)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type dailyRow struct {
	Date     string  `json:"date"`
	Location string  `json:"kecamatan"`
	Volume   float64 `json:"volume"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *handlers) apiSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.MatchesNothing() {
		jsonOK(w, Summary{})
		return
	}
	s, err := h.src.Summary(r.Context(), f)
	if err != nil {
		serverError(w, err)
		return
	}
	jsonOK(w, s)
}

func (h *handlers) apiDaily(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.MatchesNothing() {
		jsonOK(w, []dailyRow{})
		return
	}
	rows, err := h.src.DailyVolume(r.Context(), f)
	if err != nil {
		serverError(w, err)
		return
	}

	out := make([]dailyRow, len(rows))
	for i, v := range rows {
		out[i] = dailyRow{
			Date:     v.Date.Format(time.DateOnly),
			Location: v.Location,
			Volume:   v.Volume,
		}
	}
	jsonOK(w, out)
}

func (h *handlers) apiFleet(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	loads, err := h.src.FleetAnalysis(r.Context(), f.From, f.To)
	if err != nil {
		serverError(w, err)
		return
	}
	if loads == nil {
		loads = []FleetLoad{}
	}
	jsonOK(w, loads)
}

func (h *handlers) apiLocations(w http.ResponseWriter, r *http.Request) {
	names, err := h.src.Locations(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	jsonOK(w, names)
}

type paramError string

func (e paramError) Error() string { return string(e) }

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var f Filter

	if v := q.Get("from"); v != "" {
		d, ok := cleaning.ParseDate(v)
		if !ok {
			return Filter{}, paramError("invalid from date, expected YYYY-MM-DD")
		}
		f.From = d
	}
	if v := q.Get("to"); v != "" {
		d, ok := cleaning.ParseDate(v)
		if !ok {
			return Filter{}, paramError("invalid to date, expected YYYY-MM-DD")
		}
		f.To = d
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, paramError("to date is before from date")
	}

	f.Locations = q["location"]
	return f, nil
}

func serverError(w http.ResponseWriter, err error) {
	logging.Error().Err(err).Msg("Dashboard query failed")
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
