// Package chi exposes the search core over a thin HTTP surface.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wandervn/placesense/internal/domain"
	healthuc "github.com/wandervn/placesense/internal/usecase/health"
	searchuc "github.com/wandervn/placesense/internal/usecase/search"
)

// Server handles the HTTP API: embed, search, reload, health, metrics.
type Server struct {
	search  *searchuc.Service
	embed   domain.Embedder
	health  *healthuc.Service
	logger  *zap.Logger
	maxTopK int
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	embed domain.Embedder,
	health *healthuc.Service,
	maxTopK int,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:  search,
		embed:   embed,
		health:  health,
		logger:  logger,
		maxTopK: maxTopK,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/embed", s.handleEmbed)
	r.Post("/search", s.handleSearch)
	r.Post("/admin/reload", s.handleReload)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// handleEmbed handles POST /embed.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "text is required")
		return
	}

	result, err := s.embed.Embed(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, embedResponse{Embedding: result.Embedding})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchHit struct {
	ID         string  `json:"id"`
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Results []searchHit `json:"results"`
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}
	if req.TopK < 0 || req.TopK > s.maxTopK {
		writeError(w, http.StatusBadRequest, "validation_failed", "top_k out of range")
		return
	}

	results, err := s.search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits := make([]searchHit, len(results))
	for i := range results {
		hits[i] = searchHit{
			ID:         results[i].EntityID(),
			Slug:       results[i].Slug(),
			Name:       results[i].DisplayName(),
			Similarity: results[i].Similarity(),
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: hits})
}

type reloadResponse struct {
	Records int `json:"records"`
}

// handleReload handles POST /admin/reload: swaps in the current snapshot.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	n, err := s.search.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Records: n})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// handleDomainError maps domain sentinels to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(w, http.StatusBadGateway, "embedding_unavailable", "embedding provider error")
	case errors.Is(err, domain.ErrIndexCorrupt):
		writeError(w, http.StatusInternalServerError, "index_corrupt", "index snapshot could not be parsed")
	default:
		s.logger.Error("internal error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
