package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/nfrund/parlor/web"
)

// RegisterRoutes sets up the health check, the WebSocket endpoint and the
// chat client. The client comes from STATIC_DIR when set, otherwise from the
// bundled assets. Module routes are mounted by InitModules.
func (s *Server) RegisterRoutes() {
	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	s.E.GET("/ws", s.Bridge.Handler())

	if dir := s.Cfg.GetStaticDir(); dir != "" {
		s.E.StaticFS("/", afero.NewIOFS(afero.NewBasePathFs(s.static, dir)))
	} else {
		s.E.StaticFS("/", echo.MustSubFS(web.FS, "static"))
	}
}
