package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const statusLimit = 50

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes metrics, health and recent activity over HTTP
type Server struct {
	addr       string
	pinger     Pinger
	activities core.ActivityStore
	logger     *zap.Logger

	server *http.Server
	wg     sync.WaitGroup
}

// New creates an ops server. pinger may be nil.
func New(addr string, pinger Pinger, activities core.ActivityStore, logger *zap.Logger) *Server {
	s := &Server{
		addr:       addr,
		pinger:     pinger,
		activities: activities,
		logger:     logger,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/insights", s.handleInsights)
	return r
}

// Name returns the trigger name
func (s *Server) Name() string {
	return "ops-server"
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info("Starting ops server", zap.String("address", ln.Addr().String()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ops server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to shut down ops server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	activities, err := s.activities.RecentActivities(r.Context(), statusLimit)
	if err != nil {
		s.logger.Error("Failed to load recent activities", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load activities"})
		return
	}
	if activities == nil {
		activities = []core.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Insights())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
