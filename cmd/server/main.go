package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/parlor/internal/app"
	"github.com/nfrund/parlor/internal/config"
	"github.com/nfrund/parlor/internal/logging"
	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/registry"
	"github.com/nfrund/parlor/internal/relay"
	"github.com/nfrund/parlor/internal/server"
	"github.com/nfrund/parlor/internal/topicmgr"
	"github.com/nfrund/parlor/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()
	logging.New(os.Stdout, cfg.GetLogFormat(), cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := pubsub.SetupOTel(ctx, pubsub.TracingConfigFrom(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	ps := pubsub.NewWatermillBridge(pubsub.WithTracer(tracer))
	defer ps.Close()

	if err := websocket.RegisterTopicsWithManager(topicmgr.Default()); err != nil {
		return err
	}

	bridge := websocket.NewBridge(websocket.BridgeDependencies{
		Publisher:    ps,
		Subscriber:   ps,
		AllowedTypes: relay.ClientEventKinds(),
	}, websocket.Config{
		ReadLimit:      cfg.GetWSReadLimit(),
		SendBuffer:     cfg.GetWSSendBuffer(),
		WriteTimeout:   cfg.GetWSWriteTimeout(),
		AllowedOrigins: cfg.GetAllowedOrigins(),
	})
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	s, err := server.New(server.Dependencies{Config: cfg, Bridge: bridge})
	if err != nil {
		return err
	}
	s.RegisterRoutes()

	modules := app.NewModules(app.Dependencies{Publisher: ps, Subscriber: ps})
	if err := s.InitModules(ctx, modules, registry.New(cfg)); err != nil {
		return err
	}

	return s.Start(ctx)
}
