// Package api provides the HTTP server for HomeSolution.
// It exposes the registry operations as a JSON API under /api.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/domain"
	"github.com/homesolution/homesolution/internal/health"
)

// JournalReader lists cost journal entries.
type JournalReader interface {
	History(projectCode, limit int) ([]domain.JournalEntry, error)
}

// Server is the HomeSolution HTTP API server.
type Server struct {
	reg            *registry.Service
	version        string
	health         *health.Checker // nil reports a bare "ok"
	journal        JournalReader   // nil disables /api/projects/{code}/journal
	metricsEnabled bool
	corsOrigins    []string
	logRequests    bool
}

// NewServer creates a new API server over reg.
func NewServer(reg *registry.Service, version string) *Server {
	return &Server{reg: reg, version: version}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// EnableRequestLog logs every request through chi's logger.
func (s *Server) EnableRequestLog() { s.logRequests = true }

// SetHealth sets the checker reported by /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetJournal sets the cost journal exposed per project.
func (s *Server) SetJournal(j JournalReader) { s.journal = j }

// SetCORSOrigins restricts cross-origin requests. Empty allows any origin.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.logRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
		})

		r.Route("/workers", func(r chi.Router) {
			r.Get("/", s.handleListWorkers)
			r.Post("/", s.handleRegisterWorker)
			r.Get("/{id}", s.handleGetWorker)
		})

		r.Post("/clients", s.handleRegisterClient)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleRegisterProject)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Get("/cost", s.handleProjectCost)
				r.Get("/workers", s.handleProjectWorkers)
				r.Get("/journal", s.handleProjectJournal)
				r.Post("/finalize", s.handleFinalizeProject)
				r.Get("/tasks", s.handleListTasks)
				r.Post("/tasks", s.handleAddTask)
				r.Route("/tasks/{title}", func(r chi.Router) {
					r.Post("/assign", s.handleAssign)
					r.Post("/reassign", s.handleReassign)
					r.Post("/delay", s.handleDelay)
					r.Post("/finalize", s.handleFinalizeTask)
				})
			})
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

var (
	errBadBody  = &domain.Error{Kind: domain.ErrInvalidArgument, Msg: "malformed request body"}
	errBadParam = &domain.Error{Kind: domain.ErrInvalidArgument, Msg: "malformed path parameter"}
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, typ, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    typ,
		},
	})
}

// writeDomainError maps an error kind to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidOperation), errors.Is(err, domain.ErrNoWorkerAvailable):
		status = http.StatusConflict
	}
	writeError(w, status, domain.KindName(err), err.Error())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.Errorf(errBadBody, "%v", err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Errorf(errBadParam, "%s=%q", name, raw)
	}
	return n, nil
}

func titleParam(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if t, err := url.PathUnescape(raw); err == nil {
		return t
	}
	return raw
}

// corsMiddleware adds CORS headers. With no configured origins any origin is
// allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.corsOrigins) > 0 {
			origin = ""
			reqOrigin := r.Header.Get("Origin")
			for _, o := range s.corsOrigins {
				if strings.EqualFold(o, reqOrigin) {
					origin = reqOrigin
					break
				}
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
