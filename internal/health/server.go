package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// ServerConfig carries the HTTP listener settings.
type ServerConfig struct {
	ListenAddr string

	// InstanceID and Version identify the process in the status payload.
	InstanceID string
	Version    string
}

// Server serves the health endpoints:
//   - GET /healthz - liveness probe, 200 when the database answers ping
//   - GET /status  - full pipeline health snapshot
type Server struct {
	collector *Collector
	store     StatusStore
	logger    *slog.Logger
	mux       *http.ServeMux
	server    *http.Server

	instanceID string
	version    string
}

// NewServer creates the health HTTP server.
func NewServer(cfg ServerConfig, collector *Collector, store StatusStore, logger *slog.Logger) *Server {
	s := &Server{
		collector:  collector,
		store:      store,
		logger:     logger.With("component", "health"),
		mux:        http.NewServeMux(),
		instanceID: cfg.InstanceID,
		version:    cfg.Version,
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /status", s.handleStatus)

	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe serves until ctx is canceled, then shuts down
// gracefully. Cancellation is not reported as an error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	s.logger.Info("health listener started", "addr", s.server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type statusResponse struct {
	InstanceID string `json:"instance_id"`
	Version    string `json:"version"`
	*types.PipelineHealth
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.collector.GetPipelineHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to collect status: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		InstanceID:     s.instanceID,
		Version:        s.version,
		PipelineHealth: health,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
