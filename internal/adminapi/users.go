package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/safrinnetwork/MikReMan/internal/orchestrator"
)

func (s *Server) registerUserRoutes() {
	s.echo.GET("/api/users", s.listUsers)
	s.echo.POST("/api/users", s.createUser)
	s.echo.GET("/api/users/:id", s.getUser)
	s.echo.PATCH("/api/users/:id", s.updateUser)
	s.echo.DELETE("/api/users/:id", s.deleteUser)
	s.echo.POST("/api/users/:id/toggle", s.toggleUser)
	s.echo.POST("/api/users/bulk-delete", s.bulkDeleteUsers)
	s.echo.POST("/api/users/bulk-toggle", s.bulkToggleUsers)
}

func (s *Server) listUsers(c echo.Context) error {
	creds, err := s.orch.ListCredentials(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, creds)
}

func (s *Server) createUser(c echo.Context) error {
	var req orchestrator.ProvisionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err.Error())
	}
	result, err := s.orch.Provision(c.Request().Context(), req)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, result)
}

func (s *Server) getUser(c echo.Context) error {
	detail, err := s.orch.UserDetails(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, detail)
}

func (s *Server) updateUser(c echo.Context) error {
	var req orchestrator.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err.Error())
	}
	cred, err := s.orch.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, cred)
}

func (s *Server) deleteUser(c echo.Context) error {
	result, err := s.orch.Deprovision(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, result)
}

func (s *Server) toggleUser(c echo.Context) error {
	cred, err := s.orch.ToggleStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, cred)
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) bulkDeleteUsers(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err.Error())
	}
	if len(req.IDs) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "ids must not be empty", nil)
	}
	result := s.orch.BulkDeprovision(c.Request().Context(), req.IDs)
	if !result.OK {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"code": "BULK_FAILED", "message": "No credential could be removed", "detail": result,
		})
	}
	return ok(c, result)
}

func (s *Server) bulkToggleUsers(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err.Error())
	}
	if len(req.IDs) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "ids must not be empty", nil)
	}
	result := s.orch.BulkToggle(c.Request().Context(), req.IDs)
	if !result.OK {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"code": "BULK_FAILED", "message": "No credential could be toggled", "detail": result,
		})
	}
	return ok(c, result)
}
