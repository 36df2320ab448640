package server

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"

	"github.com/nfrund/parlor/internal/config"
	"github.com/nfrund/parlor/internal/handlers"
	appmiddleware "github.com/nfrund/parlor/internal/middleware"
	"github.com/nfrund/parlor/internal/module"
	"github.com/nfrund/parlor/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E       *echo.Echo
	Cfg     config.Provider
	Bridge  *websocket.Bridge
	static  afero.Fs
	modules []module.Module
}

// Dependencies holds the collaborators needed to build a Server.
type Dependencies struct {
	Config config.Provider
	Bridge *websocket.Bridge
	// Echo is optional; a new instance is created when nil.
	Echo *echo.Echo
	// StaticFS is the filesystem STATIC_DIR is resolved against. Defaults
	// to the OS filesystem.
	StaticFS afero.Fs
}

// New creates a new Server instance with the standard middleware stack.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.Bridge == nil {
		return nil, errors.New("server: websocket bridge is required")
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	static := deps.StaticFS
	if static == nil {
		static = afero.NewOsFs()
	}

	return &Server{
		E:      e,
		Cfg:    deps.Config,
		Bridge: deps.Bridge,
		static: static,
	}, nil
}

// setupErrorHandling installs a handler that renders every error as an
// ErrorResponse. Errors that are not *echo.HTTPError are logged with a stack
// trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		} else {
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, handlers.ErrorResponse{Code: errorCode(code), Message: message})
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}

// errorCode turns a status into an identifier such as NOT_FOUND.
func errorCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
