package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/cbodonnell/arena/pkg/api/handlers"
	"github.com/cbodonnell/arena/pkg/api/middleware"
	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/repositories"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port       int
	Session    handlers.Session
	Repository repositories.Repository
}

// NewAPIServer creates a new http.Server exposing the session status and
// the match history
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	return &APIServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: NewRouter(opts.Session, opts.Repository),
		},
	}
}

// NewRouter registers the API routes
func NewRouter(session handlers.Session, repository repositories.Repository) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.CORS)
	r.HandleFunc("/healthz", handlers.HandleHealth(session)).Methods(http.MethodGet)
	r.HandleFunc("/roster", handlers.HandleRoster(session)).Methods(http.MethodGet)
	r.HandleFunc("/matches", handlers.HandleListMatches(repository)).Methods(http.MethodGet)
	r.HandleFunc("/matches/{matchID}", handlers.HandleGetMatch(repository)).Methods(http.MethodGet)
	return r
}

// Start serves the API until Stop is called
func (s *APIServer) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", s.server.Addr, err)
	}
	log.Info("API server listening on %s", listener.Addr())
	if err := s.server.Serve(listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return nil
		}
		return fmt.Errorf("API server error: %v", err)
	}
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
