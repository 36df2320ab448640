package server

import (
	"context"
	"errors"
	"log/slog"
)

// Shutdown stops accepting requests, waits for WebSocket connections to
// close and shuts modules down in reverse boot order. The context given to
// the bridge's Start should already be canceled.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server...")

	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.Bridge.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.modules) - 1; i >= 0; i-- {
		if err := s.modules[i].Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
