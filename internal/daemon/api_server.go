package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	maxUpload int64
	handler   http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	readTO   time.Duration
	writeTO  time.Duration
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Server.Bind),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		maxUpload: cfg.MaxUploadBytes(),
		readTO:    time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		writeTO:   time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transcribe", srv.handleTranscribeUpload)
	mux.HandleFunc("POST /api/transcribe/remote", srv.handleTranscribeRemote)
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/cache", srv.handleCacheList)
	mux.HandleFunc("DELETE /api/cache", srv.handleCacheClear)
	mux.HandleFunc("DELETE /api/cache/{key...}", srv.handleCacheRemove)

	var handler http.Handler = mux
	handler = authMiddleware(cfg.Server.APIToken, handler)
	handler = accessLogMiddleware(srv.logger, handler)
	handler = requestIDMiddleware(handler)
	srv.handler = handler
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api listen: server.bind is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTO,
		WriteTimeout:      s.writeTO,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	rid, _ := services.RequestIDFromContext(r.Context())
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind, RequestID: rid})
}

// writeServiceError maps a transcription error to its status code. Server-side
// failures are logged in full and reported with the marker text only.
func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	kind := services.Kind(err)
	logger := logging.WithContext(r.Context(), s.logger)
	message := err.Error()
	switch {
	case status >= http.StatusInternalServerError && !errors.Is(err, services.ErrDownloadFailed):
		logging.ErrorWithContext(logger, "transcription request failed", "request_failed",
			logging.String("kind", kind),
			logging.Int("status", status),
			logging.Error(err),
		)
		message = publicMessage(err)
	default:
		logger.Info("transcription request rejected",
			logging.String("kind", kind),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, r, status, kind, message)
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrRecognitionFailed):
		return services.ErrRecognitionFailed.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "transcription timed out"
	default:
		return "internal error"
	}
}
