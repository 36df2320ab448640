package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger gives each request a logger carrying request_id, method and path,
// and logs the request once the handler returns. For /ws that is when the
// WebSocket session ends. Place it after echo's RequestID middleware.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		requestLogger := slog.Default().With(
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", req.Method,
			"path", req.URL.Path,
		)
		c.SetRequest(req.WithContext(WithLogger(req.Context(), requestLogger)))

		err := next(c)

		// Handlers may have added attributes, so re-read the logger.
		attrs := []any{"status", c.Response().Status, "latency", time.Since(start)}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		FromContext(c.Request().Context()).Debug("request completed", attrs...)
		return err
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns ctx whose logger carries the extra attributes, e.g.
// With(ctx, "conn_id", id).
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// FromContext returns the request logger, or the default logger outside a
// request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
