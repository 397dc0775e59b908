package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tenantio/tenantd/pkg/deploy"
	"github.com/tenantio/tenantd/pkg/log"
	"github.com/tenantio/tenantd/pkg/metrics"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

// Server is the read-only operations API: health, metrics, and deployment
// inspection. Mutations go through the CLI, not this surface.
type Server struct {
	store      storage.Store
	deployer   *deploy.Deployer
	httpServer *http.Server
	addr       string
}

// NewServer creates an operations API server listening on addr
func NewServer(store storage.Store, deployer *deploy.Deployer, addr string) *Server {
	s := &Server{store: store, deployer: deployer, addr: addr}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /v1/deployments/{id}", s.handleDeployment)
	mux.HandleFunc("GET /v1/tenants/{id}/deployments", s.handleTenantHistory)
	mux.HandleFunc("GET /v1/tenants/{id}", s.handleTenant)
	mux.HandleFunc("GET /v1/tenants", s.handleTenants)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the routing table for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the context is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	logger := log.WithComponent("api")
	logger.Info().Str("addr", s.addr).Msg("operations API listening")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down operations API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeployment(w http.ResponseWriter, r *http.Request) {
	record, err := s.deployer.GetDeploymentStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleTenantHistory(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page parameter"})
			return
		}
		page = parsed
	}

	// The tenant must exist even when the page is empty
	if _, err := s.store.GetTenant(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	records, err := s.deployer.GetDeploymentHistory(r.PathValue("id"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*types.DeploymentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":        page,
		"page_size":   deploy.HistoryPageSize,
		"deployments": records,
	})
}

func (s *Server) handleTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.store.GetTenant(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (s *Server) handleTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.store.ListTenants()
	if err != nil {
		writeError(w, err)
		return
	}
	if tenants == nil {
		tenants = []*types.Tenant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, types.ErrTenantNotFound) || errors.Is(err, types.ErrRecordNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
