package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/parlor/internal/module"
	"github.com/nfrund/parlor/internal/registry"
)

// InitModules registers every module, then boots each under /api/<name>.
// Modules are shut down in reverse order by Shutdown.
func (s *Server) InitModules(ctx context.Context, modules []module.Module, reg *registry.Registry) error {
	for _, m := range modules {
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}

	for _, m := range modules {
		g := s.E.Group("/api/" + m.Name())
		if err := m.Boot(ctx, g, reg); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		s.modules = append(s.modules, m)
		slog.Info("Module booted", "module", m.Name())
	}
	return nil
}
