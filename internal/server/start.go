package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Start serves HTTP until ctx is canceled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Cfg.GetServerAddr()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Cfg.GetShutdownTimeout())
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
