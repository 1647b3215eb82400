// Package api exposes the question-answering pipeline over HTTP: a chat
// endpoint (JSON or SSE token streaming), hotel and session inspection, and
// a health endpoint with degraded-not-fatal dependency checks.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/pipeline"
	"github.com/seoulstay/concierge/pkg/session"
)

// ChatRunner is the pipeline capability the server consumes.
type ChatRunner interface {
	Run(ctx context.Context, req pipeline.Request) *pipeline.Record
}

// HealthPinger probes one dependency. A non-nil error marks the component
// degraded; the service itself stays up.
type HealthPinger func(ctx context.Context) error

// Server is the HTTP front end. Construct with NewServer, register optional
// health checks, then Start.
type Server struct {
	cfg      *config.Config
	chat     ChatRunner
	sessions *session.Store

	echo *echo.Echo
	http *http.Server

	checkNames []string
	checks     map[string]HealthPinger
}

// NewServer wires the routes and middleware.
func NewServer(cfg *config.Config, chat ChatRunner, sessions *session.Store) *Server {
	s := &Server{
		cfg:      cfg,
		chat:     chat,
		sessions: sessions,
		echo:     echo.New(),
		checks:   make(map[string]HealthPinger),
	}

	s.echo.Use(securityHeaders())
	s.echo.Use(requestID())
	s.echo.Use(requestLogger())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/hotels", s.listHotelsHandler)
	s.echo.GET("/sessions/:id", s.getSessionHandler)
	s.echo.POST("/chat", s.chatHandler)

	return s
}

// AddHealthCheck registers a named dependency probe, preserving registration
// order in the health response.
func (s *Server) AddHealthCheck(name string, ping HealthPinger) {
	if _, ok := s.checks[name]; !ok {
		s.checkNames = append(s.checkNames, name)
	}
	s.checks[name] = ping
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// ServeHTTP makes the server usable directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
