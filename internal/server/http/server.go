package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP API until its context is cancelled.
type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, h http.Handler, l logging.Logger) *Server {
	return &Server{address: address, handler: h, logger: l.With("module", "http_server")}
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
