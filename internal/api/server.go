// Package api exposes the supervisor, the roster and the event stream over
// HTTP using Huma.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
	"github.com/smazurov/bedrockd/internal/logging"
	"github.com/smazurov/bedrockd/internal/process"
)

// Supervisor is the process control surface used by the API.
// *process.Supervisor satisfies it.
type Supervisor interface {
	Run() error
	Stop() error
	SendCommand(ctx context.Context, cmd bedrock.Command) error
	IsRunning() bool
	Info() process.Info
}

// Roster lists connected players. *roster.Aggregator satisfies it.
type Roster interface {
	Snapshot() []bedrock.Player
}

// EventSource is the read side of the event bus. *events.Bus satisfies it.
type EventSource interface {
	Subscribe() *events.Subscription
	Snapshot() []bedrock.Event
}

// Options configures the API server.
type Options struct {
	Supervisor        Supervisor
	Roster            Roster
	Events            EventSource
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
	Version           string
}

// Server serves the HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	supervisor Supervisor
	roster     Roster
	events     EventSource
	logger     *slog.Logger
}

// NewServer creates a new API server with Huma v2 on Go's native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	config := huma.DefaultConfig("bedrockd API", version)
	config.Info.Description = "Supervises a Minecraft Bedrock dedicated server and streams its events"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:        api,
		mux:        mux,
		supervisor: opts.Supervisor,
		roster:     opts.Roster,
		events:     opts.Events,
		logger:     logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener and every open connection, including event streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	s.registerProcessRoutes()
	s.registerPlayerRoutes()
	s.registerCommandRoutes()
	s.registerEventRoutes()
}
