// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/history"
)

// HostingClient is the slice of the hosting API the handlers call directly;
// the fetcher and enricher hold their own narrower views.
type HostingClient interface {
	ListBranches(ctx context.Context, owner, repo string) ([]string, error)
	TokenPresent() bool
}

// Server routes the asset-history endpoints.
type Server struct {
	router     chi.Router
	cfg        config.Config
	hosting    HostingClient
	fetcher    *history.Fetcher
	enricher   *history.Enricher
	correlator *deploy.Correlator
}

// NewServer wires the pipeline components behind the HTTP surface.
func NewServer(cfg config.Config, hosting HostingClient, fetcher *history.Fetcher, enricher *history.Enricher, correlator *deploy.Correlator) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		cfg:        cfg,
		hosting:    hosting,
		fetcher:    fetcher,
		enricher:   enricher,
		correlator: correlator,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(corsMiddleware)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(w, r)
			logger.Debug("request", "id", reqID, "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/asset-history", s.handleAssetHistory)
	s.router.Get("/v1/branches", s.handleBranches)
	s.router.Get("/v1/logs", s.handleLogs)
}

// corsMiddleware permits any origin for GET; OPTIONS short-circuits with 200.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	owner := queryDefault(r, "owner", s.cfg.GitHub.Owner)
	repo := queryDefault(r, "repo", s.cfg.GitHub.Repo)
	branches, err := s.hosting.ListBranches(r.Context(), owner, repo)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repository": owner + "/" + repo, "branches": branches})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
