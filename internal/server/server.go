// Package server exposes the lead intelligence core as a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/pipeline"
	"github.com/sells-group/lead-intel/internal/research"
	"github.com/sells-group/lead-intel/internal/scorer"
)

// Deduper is the part of the duplicate detector the API uses.
type Deduper interface {
	Threshold() float64
	DedupeAt(leads []model.Lead, threshold float64) []model.Lead
}

// Scorer is the part of the lead scorer the API uses.
type Scorer interface {
	Trained() bool
	Score(lead model.Lead) (float64, error)
	Rank(leads []model.Lead) []scorer.Ranked
}

// Runner runs the full pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// Deps are the components behind the API.
type Deps struct {
	Research pipeline.Researcher
	Dedup    Deduper
	Scorer   Scorer
	Pipeline Runner
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 10 << 20

// NewRouter builds the HTTP handler. corsOrigins may be empty.
func NewRouter(deps Deps, corsOrigins []string) http.Handler {
	h := &handlers{deps: deps, log: zap.L().With(zap.String("component", "server"))}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.health)
	r.Post("/research", h.research)
	r.Post("/dedupe", h.dedupe)
	r.Post("/score", h.score)
	r.Post("/pipeline", h.pipeline)
	return r
}

type handlers struct {
	deps Deps
	log  *zap.Logger
}

type researchRequest struct {
	Industry    string `json:"industry"`
	Location    string `json:"location"`
	CompanySize string `json:"company_size"`
}

type researchResponse struct {
	Candidates []model.CompanyCandidate `json:"candidates"`
	Outcome    research.Outcome         `json:"outcome"`
	Fallback   bool                     `json:"fallback"`
}

type dedupeRequest struct {
	Leads     []model.Lead `json:"leads"`
	Threshold *float64     `json:"threshold,omitempty"`
}

type dedupeResponse struct {
	Leads     []model.Lead `json:"leads"`
	Removed   int          `json:"removed"`
	Threshold float64      `json:"threshold"`
}

type scoreRequest struct {
	Leads []model.Lead `json:"leads"`
	Rank  bool         `json:"rank"`
}

type scoreResponse struct {
	Trained bool            `json:"trained"`
	Results []scorer.Ranked `json:"results"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"scoring_trained": h.deps.Scorer.Trained(),
		"dedup_threshold": h.deps.Dedup.Threshold(),
	})
}

func (h *handlers) research(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Industry == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "industry and location are required")
		return
	}

	cands, out := h.deps.Research.Research(r.Context(), research.Request{
		Industry:    req.Industry,
		Location:    req.Location,
		CompanySize: req.CompanySize,
	})
	writeJSON(w, http.StatusOK, researchResponse{Candidates: cands, Outcome: out, Fallback: !out.OK()})
}

func (h *handlers) dedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if !h.decode(w, r, &req) {
		return
	}
	threshold := h.deps.Dedup.Threshold()
	if req.Threshold != nil {
		if *req.Threshold <= 0 || *req.Threshold > 100 {
			writeError(w, http.StatusBadRequest, "threshold must be in (0, 100]")
			return
		}
		threshold = *req.Threshold
	}

	unique := h.deps.Dedup.DedupeAt(req.Leads, threshold)
	writeJSON(w, http.StatusOK, dedupeResponse{
		Leads:     unique,
		Removed:   len(req.Leads) - len(unique),
		Threshold: threshold,
	})
}

func (h *handlers) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	var results []scorer.Ranked
	if req.Rank {
		results = h.deps.Scorer.Rank(req.Leads)
	} else {
		results = make([]scorer.Ranked, len(req.Leads))
		for i, l := range req.Leads {
			results[i] = scorer.Ranked{Lead: l}
			s, err := h.deps.Scorer.Score(l)
			if err != nil {
				results[i].Error = err.Error()
				continue
			}
			results[i].Score, results[i].Scored = s, true
		}
	}
	writeJSON(w, http.StatusOK, scoreResponse{Trained: h.deps.Scorer.Trained(), Results: results})
}

func (h *handlers) pipeline(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !h.decode(w, r, &req) {
		return
	}
	if req.Industry == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "industry and location are required")
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Pipeline.Run(r.Context(), req))
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.log.Debug("server: invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
