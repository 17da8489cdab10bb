package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

func (s *Server) registerServiceRoutes() {
	s.echo.GET("/api/services", s.serviceStatus)
	s.echo.POST("/api/services/:name/toggle", s.toggleService)
	s.echo.POST("/api/profiles/:service", s.ensureProfile)
	s.echo.GET("/api/masquerade", s.getMasquerade)
	s.echo.POST("/api/masquerade", s.ensureMasquerade)
}

func (s *Server) serviceStatus(c echo.Context) error {
	status, err := s.orch.ServiceStatus(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, status)
}

func (s *Server) toggleService(c echo.Context) error {
	var req struct {
		Enable interface{} `json:"enable"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err.Error())
	}
	name := strings.ToLower(c.Param("name"))
	if err := s.orch.ToggleService(c.Request().Context(), name, cast.ToBool(req.Enable)); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"service": name, "enabled": cast.ToBool(req.Enable)})
}

func (s *Server) ensureProfile(c echo.Context) error {
	result, err := s.orch.EnsureServiceProfile(c.Request().Context(), c.Param("service"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, result)
}

func (s *Server) getMasquerade(c echo.Context) error {
	rule, err := s.orch.Masquerade(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	if rule == nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "No managed masquerade rule", nil)
	}
	return ok(c, rule)
}

func (s *Server) ensureMasquerade(c echo.Context) error {
	rule, err := s.orch.EnsureMasquerade(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, rule)
}
