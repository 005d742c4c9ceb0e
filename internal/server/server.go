package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mirrormind/internal/admintoken"
	"mirrormind/internal/app"
	"mirrormind/internal/ratelimit"
	"mirrormind/internal/util"
	"mirrormind/pkg/domain"
	"mirrormind/pkg/queue"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	AdminVerifier  *admintoken.Verifier
	MaxBodyBytes   int64
	// Enabled gates submissions; a disabled service hides the endpoint.
	Enabled bool
}

// Server exposes the HTTP API.
type Server struct {
	app          *app.App
	limiter      *ratelimit.FixedWindowLimiter
	trusted      *util.TrustedProxies
	adminVerify  *admintoken.Verifier
	mux          *http.ServeMux
	maxBodyBytes int64
	enabled      bool
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 25 * 1024 * 1024
	}
	s := &Server{
		app:          cfg.App,
		limiter:      cfg.Limiter,
		trusted:      cfg.TrustedProxies,
		adminVerify:  cfg.AdminVerifier,
		mux:          http.NewServeMux(),
		maxBodyBytes: maxBodyBytes,
		enabled:      cfg.Enabled,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("mirror", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/mirror/process", s.handleProcess)
	s.mux.HandleFunc("/api/mirror/insights/", s.handleInsights)
	s.mux.Handle("/admin/jobs", s.withAdmin(s.handleAdminJobs))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type processRequest struct {
	PersonName string           `json:"person_name"`
	Language   string           `json:"language"`
	Chat       []domain.Message `json:"chat"`
	Keypair    struct {
		PK        string `json:"pk"`
		PublicKey string `json:"public_key"`
	} `json:"keypair"`
}

func (r processRequest) publicKey() string {
	if key := strings.TrimSpace(r.Keypair.PK); key != "" {
		return key
	}
	return strings.TrimSpace(r.Keypair.PublicKey)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.enabled {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r, s.trusted)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req processRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.app.SubmitAnalysis(r.Context(), app.Submission{
		PersonName: req.PersonName,
		Language:   req.Language,
		PublicKey:  req.publicKey(),
		Messages:   req.Chat,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPublicKeyRequired):
			writeError(w, http.StatusBadRequest, "public key required")
		case errors.Is(err, app.ErrNoMessages):
			writeError(w, http.StatusBadRequest, "chat contains no messages")
		case errors.Is(err, queue.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, "service busy, try again later")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job_id": job.ID,
		"url":    "/api/mirror/insights/" + job.ID,
	})
}

type insightsResponse struct {
	JobID           string          `json:"job_id"`
	Status          string          `json:"status"`
	EncryptedResult json.RawMessage `json:"encrypted_result"`
	ErrorMessage    *string         `json:"error_message"`
	CreatedAt       string          `json:"created_at"`
	CompletedAt     *string         `json:"completed_at"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/mirror/insights/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}

	job, ok, err := s.app.GetJob(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		notFound(w, "job not found")
		return
	}

	resp := insightsResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(timeLayout),
	}
	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &completed
	}
	if job.ErrorMessage != "" {
		resp.ErrorMessage = &job.ErrorMessage
	}
	if job.Status == domain.StatusCompleted {
		bundle, err := s.app.GetResult(r.Context(), job)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "result unavailable")
			return
		}
		resp.EncryptedResult = bundle
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminVerify == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		token, ok := admintoken.BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.adminVerify.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleAdminJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	jobs, err := s.app.ListJobs(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}
