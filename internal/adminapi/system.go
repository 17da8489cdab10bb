package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerSystemRoutes() {
	s.echo.GET("/api/system/test", s.testConnection)
	s.echo.GET("/api/active", s.activeSessions)
	s.echo.GET("/api/logs", s.deviceLogs)
	s.echo.POST("/api/backup/send", s.sendBackup)
	s.echo.GET("/api/backup", s.downloadBackup)
}

func (s *Server) testConnection(c echo.Context) error {
	info, err := s.orch.TestConnection(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, info)
}

func (s *Server) activeSessions(c echo.Context) error {
	sessions, err := s.orch.ActiveSessionsWithTraffic(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, sessions)
}

func (s *Server) deviceLogs(c echo.Context) error {
	entries, err := s.orch.Logs(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, entries)
}

func (s *Server) sendBackup(c echo.Context) error {
	if s.sink == nil {
		return fail(c, http.StatusConflict, "NO_SINK", "No backup sink configured", nil)
	}
	if err := s.orch.SendBackup(c.Request().Context(), s.sink); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"sent": true})
}

func (s *Server) downloadBackup(c echo.Context) error {
	content, err := s.orch.BuildBackup(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="mikreman-backup.rsc"`)
	return c.Blob(http.StatusOK, "text/plain", content)
}
