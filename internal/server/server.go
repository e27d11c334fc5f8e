// Package server exposes the aggregation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"livenewsmap/internal/metrics"
	"livenewsmap/internal/news"
	"livenewsmap/internal/region"
)

// Aggregator is the news pipeline entry point. Implemented by news.Aggregator.
type Aggregator interface {
	Aggregate(ctx context.Context, regionID string, limit int, force bool) (*news.Payload, error)
}

type Server struct {
	log     *slog.Logger
	regions region.Store
	agg     Aggregator
}

func New(log *slog.Logger, regions region.Store, agg Aggregator) *Server {
	return &Server{log: log, regions: regions, agg: agg}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/news/{regionID}", s.handleNews)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionID")
	limit := parseLimit(r.URL.Query().Get("limit"))
	force := parseForce(r.URL.Query().Get("force"))

	payload, err := s.agg.Aggregate(r.Context(), regionID, limit, force)
	if err != nil {
		if errors.Is(err, region.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "region not found"})
			return
		}
		// Internal detail stays in the log; callers get a generic failure.
		s.log.Error("aggregation failed", "region", regionID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch news"})
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

type regionSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	FeedCount int     `json:"feedCount"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.regions.List(r.Context())
	if err != nil {
		s.log.Error("list regions failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list regions"})
		return
	}

	out := make([]regionSummary, 0, len(regions))
	for _, reg := range regions {
		out = append(out, regionSummary{
			ID:        reg.ID,
			Name:      reg.Name,
			Lat:       reg.Lat,
			Lng:       reg.Lng,
			FeedCount: len(reg.Feeds),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Global.GetStats())
}

// parseLimit maps the raw query value to an int. Absent or non-numeric input
// yields the unspecified sentinel so the aggregator applies its default; a
// supplied number, zero included, passes through for clamping.
func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return news.LimitUnspecified
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return news.LimitUnspecified
	}
	return value
}

func parseForce(raw string) bool {
	return raw == "1" || raw == "true"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("encode response", "error", err)
	}
}
