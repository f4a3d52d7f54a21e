package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/stream"
	"github.com/ppiankov/claimcheck/internal/telemetry"
	"github.com/ppiankov/claimcheck/internal/workflow"
	"github.com/rs/zerolog"
)

// HealthStatus is the body of GET /health
const HealthStatus = "Fact-Checker API is running"

const maxRequestBytes = 64 << 10

// Runner starts fact-check runs
type Runner interface {
	Run(ctx context.Context, claim model.Claim) <-chan workflow.Event
}

// ClaimRequest is the body of POST /api/analyze-claim and the first WebSocket message
type ClaimRequest struct {
	Claim string `json:"claim" validate:"required,max=2000"`
}

// Server exposes the fact-check workflow over HTTP
type Server struct {
	runner   Runner
	cfg      model.ServerConfig
	metrics  *telemetry.Metrics
	logger   zerolog.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
	router   *mux.Router
	handler  http.Handler
}

// New creates a server. metrics may be nil.
func New(runner Runner, cfg model.ServerConfig, metrics *telemetry.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		runner:   runner,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With().Str("component", "server").Logger(),
		validate: validator.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	s.router = s.routes()
	s.handler = s.corsHandler(s.router)
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/analyze-claim", s.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/api/ws", s.handleWebSocket).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	router.Use(s.observe)
	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": HealthStatus})
}

// handleAnalyze streams one run as Server-Sent Events
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	claim, err := s.parseClaim(req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := stream.Pump(s.runner.Run(ctx, claim), sse); err != nil {
		s.logger.Debug().Err(err).Msg("client went away")
	}
}

// handleWebSocket reads one claim request, streams the run and closes
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	sink := stream.NewWebSocketSink(conn)
	defer func() { _ = sink.Close() }()

	conn.SetReadLimit(maxRequestBytes)
	var req ClaimRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = sink.Send(stream.Record{Event: stream.KindError, Data: "invalid JSON message"})
		_ = sink.Send(stream.End)
		return
	}

	claim, err := s.parseClaim(req)
	if err != nil {
		_ = sink.Send(stream.Record{Event: stream.KindError, Data: err.Error()})
		_ = sink.Send(stream.End)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A read error means the client closed the socket
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := stream.Pump(s.runner.Run(ctx, claim), sink); err != nil {
		s.logger.Debug().Err(err).Msg("websocket client went away")
	}
}

func (s *Server) parseClaim(req ClaimRequest) (model.Claim, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
			return "", fmt.Errorf("claim is too long")
		}
		return "", model.ErrEmptyClaim
	}
	return model.NewClaim(req.Claim)
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
