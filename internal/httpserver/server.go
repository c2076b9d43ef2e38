package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dalvae/upworkinsights/internal/config"
	"github.com/Dalvae/upworkinsights/internal/domain"
	"github.com/Dalvae/upworkinsights/internal/upwork"
)

// Payloads come from a browser extension relaying intercepted responses;
// anything bigger than this is not a job payload.
const maxBodyBytes = 10 << 20

// Server is the HTTP server exposing the ingest and insights API.
type Server struct {
	cfg        *config.Config
	service    *domain.Service
	events     http.Handler
	logger     *slog.Logger
	listCache  *responseCache
	statsCache *responseCache
	httpServer *http.Server
}

// NewServer creates a new HTTP server around the given domain service.
// events serves the live WebSocket feed and may be nil.
func NewServer(cfg *config.Config, service *domain.Service, events http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		service:    service,
		events:     events,
		logger:     logger,
		listCache:  newResponseCache(30 * time.Second),
		statsCache: newResponseCache(60 * time.Second),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ingest", s.requireAPIKey(s.handleIngest))
	mux.HandleFunc("POST /api/import/bulk", s.requireAPIKey(s.handleBulkImport))
	mux.HandleFunc("GET /api/jobs", s.listCache.wrap(s.handleListJobs))
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/history", s.handleJobHistory)
	mux.HandleFunc("GET /api/analytics/overview", s.statsCache.wrap(s.handleOverview))
	mux.HandleFunc("GET /api/analytics/skills", s.statsCache.wrap(s.handleSkillStats))
	mux.HandleFunc("GET /api/analytics/budgets", s.statsCache.wrap(s.handleBudgetStats))
	mux.HandleFunc("GET /api/analytics/matches", s.handleTopMatches)
	mux.HandleFunc("GET /api/analytics/trends", s.statsCache.wrap(s.handleTrends))
	mux.HandleFunc("GET /api/analytics/proposals", s.statsCache.wrap(s.handleProposalVelocity))
	mux.HandleFunc("GET /api/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/profile", s.requireAPIKey(s.handleSaveProfile))
	if events != nil {
		mux.Handle("GET /api/events", events)
	}
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      withLogging(logger, withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAPIKey guards the write endpoints with a static bearer token. Keys
// are checked before the body is read.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.IngestAPIKey == "" {
			s.logger.Error("ingest request rejected, INGEST_API_KEY is not set")
			writeError(w, http.StatusInternalServerError, "ServerError", "Server not configured")
			return
		}

		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.cfg.IngestAPIKey {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing API key")
			return
		}

		next(w, r)
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "failed to read body")
		return
	}

	payload := upwork.ExtractPayload(body)
	incoming := make([]domain.IncomingJob, 0, len(payload.Jobs))
	for i := range payload.Jobs {
		incoming = append(incoming, upwork.Normalize(&payload.Jobs[i], payload.SourceURL, payload.SearchQuery))
	}

	result := s.service.IngestBatch(r.Context(), incoming, "ingest")
	s.invalidateCaches()

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"received": result.Received,
		"inserted": result.Inserted,
		"errors":   result.Errors,
		"skipped":  result.Skipped,
	})
}

// handleBulkImport accepts either one captured payload or a JSON array of
// them, as produced by the import tool.
func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "failed to read body")
		return
	}

	var payloads []json.RawMessage
	if err := json.Unmarshal(body, &payloads); err != nil {
		payloads = []json.RawMessage{body}
	}

	var total domain.IngestResult
	for _, raw := range payloads {
		payload := upwork.ExtractPayload(raw)
		incoming := make([]domain.IncomingJob, 0, len(payload.Jobs))
		for i := range payload.Jobs {
			incoming = append(incoming, upwork.Normalize(&payload.Jobs[i], payload.SourceURL, payload.SearchQuery))
		}
		result := s.service.IngestBatch(r.Context(), incoming, "bulk")
		total.Received += result.Received
		total.Inserted += result.Inserted
		total.Errors += result.Errors
		total.Skipped += result.Skipped
	}
	s.invalidateCaches()

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"payloads": len(payloads),
		"total":    total.Received,
		"inserted": total.Inserted,
		"errors":   total.Errors,
		"skipped":  total.Skipped,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := domain.JobFilters{
		Tier:    domain.Tier(q.Get("tier")),
		JobType: domain.JobType(q.Get("job_type")),
		Skill:   q.Get("skill"),
		Country: q.Get("country"),
		Query:   q.Get("q"),
		Page:    intParam(q.Get("page"), 1),
		Limit:   intParam(q.Get("limit"), 20),
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
	}

	jobs, count, err := s.service.ListJobs(r.Context(), filters)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []domain.JobWithSkills{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": count,
		"page":  filters.Page,
		"limit": filters.Limit,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid job id")
		return
	}

	job, err := s.service.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get job", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to get job")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "NotFound", "job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid job id")
		return
	}

	snaps, err := s.service.JobHistory(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get job history", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to get job history")
		return
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Overview(r.Context())
	if err != nil {
		s.logger.Error("failed to compute overview", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute overview")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSkillStats(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 30)
	skills, err := s.service.SkillStats(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to compute skill stats", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute skill stats")
		return
	}
	if skills == nil {
		skills = []domain.SkillCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": skills})
}

func (s *Server) handleBudgetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.BudgetStats(r.Context())
	if err != nil {
		s.logger.Error("failed to compute budget stats", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute budget stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTopMatches(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 20)
	matches, err := s.service.TopMatches(r.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrNoProfile) {
			writeError(w, http.StatusBadRequest, "NoProfile", "save a profile before requesting matches")
			return
		}
		s.logger.Error("failed to compute matches", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute matches")
		return
	}
	if matches == nil {
		matches = []domain.ScoredJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	days := intParam(r.URL.Query().Get("days"), 30)
	trends, err := s.service.Trends(r.Context(), days)
	if err != nil {
		s.logger.Error("failed to compute trends", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute trends")
		return
	}
	if trends == nil {
		trends = []domain.DailyTrend{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

func (s *Server) handleProposalVelocity(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.ProposalVelocity(r.Context())
	if err != nil {
		s.logger.Error("failed to compute proposal velocity", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute proposal velocity")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.service.GetProfile(r.Context())
	if err != nil {
		s.logger.Error("failed to get profile", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to get profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "NotFound", "no profile configured")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// profileRequest mirrors UserProfile but accepts the API key, which the
// domain type never serializes.
type profileRequest struct {
	Skills         []string      `json:"skills"`
	HourlyRate     *float64      `json:"hourly_rate"`
	PreferredTiers []domain.Tier `json:"preferred_tiers"`
	MinBudget      *float64      `json:"min_budget"`
	APIKey         string        `json:"api_key"`
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid profile body")
		return
	}

	saved, err := s.service.SaveProfile(r.Context(), &domain.UserProfile{
		Skills:         req.Skills,
		HourlyRate:     req.HourlyRate,
		PreferredTiers: req.PreferredTiers,
		MinBudget:      req.MinBudget,
		APIKey:         req.APIKey,
	})
	if err != nil {
		s.logger.Error("failed to save profile", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to save profile")
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) invalidateCaches() {
	s.listCache.purge()
	s.statsCache.purge()
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

// withCORS lets the extension and dashboard call the API from their own
// origins.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// WebSocket upgrade needs to hijack the connection.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
