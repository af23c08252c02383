package api

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server runs the HTTP surface as a supervised worker.
type Server struct {
	log             *slog.Logger
	address         string
	handler         http.Handler
	shutdownTimeout time.Duration
}

func NewServer(log *slog.Logger, address string, handler http.Handler, shutdownTimeout time.Duration) *Server {
	return &Server{log: log, address: address, handler: handler, shutdownTimeout: shutdownTimeout}
}

// Run serves until ctx is done, then drains in-flight requests.
// Request contexts derive from ctx so open websockets stop reading on shutdown.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", s.address, "at", time.Now().UTC())
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	return nil
}
