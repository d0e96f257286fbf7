// Package api serves the directory over HTTP for the community portal and
// operator tooling.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/ingest"
	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/internal/store"
)

// manualSource tags records submitted through the API rather than discovered
// by an ingestion job.
const manualSource = "community_noticeboard"

// Server exposes the directory store and the ingestion pipeline.
type Server struct {
	store    store.Store
	pipeline *ingest.Pipeline
}

// NewServer wires the handlers. pipeline may be nil, which disables record
// submission.
func NewServer(st store.Store, pipeline *ingest.Pipeline) *Server {
	return &Server{store: st, pipeline: pipeline}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/services", s.handleListServices)
		r.Post("/services", s.handleSubmitService)
		r.Get("/services/{id}", s.handleGetService)
		r.Delete("/services/{id}", s.handleDeactivateService)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		Category:        model.CategoryTag(q.Get("category")),
		Suburb:          q.Get("suburb"),
		DataSource:      q.Get("source"),
		Search:          q.Get("q"),
		IncludeInactive: q.Get("include_inactive") == "true",
	}
	if filter.Category != "" && !filter.Category.Valid() {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	filter.Limit = intQuery(q.Get("limit"))
	filter.Offset = intQuery(q.Get("offset"))

	recs, err := s.store.ListServices(r.Context(), filter)
	if err != nil {
		zap.L().Error("list services failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if recs == nil {
		recs = []model.ServiceRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"services": recs,
		"count":    len(recs),
	})
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetService(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		zap.L().Error("get service failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSubmitService(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		respondError(w, http.StatusNotImplemented, "submission disabled")
		return
	}

	var raw model.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.pipeline.Ingest(r.Context(), raw, manualSource)
	if err != nil {
		zap.L().Error("submission failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if res.Outcome == ingest.OutcomeDropped {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": string(res.Outcome),
			"reason": res.Reason,
		})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"status":  string(res.Outcome),
		"action":  string(res.Action),
		"service": res.Record,
	})
}

func (s *Server) handleDeactivateService(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeactivateService(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		zap.L().Error("deactivate service failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountServices(r.Context())
	if err != nil {
		zap.L().Error("stats failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("encode response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
