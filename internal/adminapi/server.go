package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/safrinnetwork/MikReMan/internal/orchestrator"
	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// Server is the admin JSON API over one orchestrator.
type Server struct {
	echo *echo.Echo
	orch *orchestrator.Orchestrator
	sink orchestrator.BackupSink
}

func NewServer(orch *orchestrator.Orchestrator, sink orchestrator.BackupSink) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("api request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))

	s := &Server{echo: e, orch: orch, sink: sink}
	s.registerSystemRoutes()
	s.registerServiceRoutes()
	s.registerUserRoutes()
	return s
}

func (s *Server) Start(listen string) error {
	zap.S().Infof("admin api listening on %s", listen)
	return s.echo.Start(listen)
}

// Handler exposes the underlying mux, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"code": "OK", "data": data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{"code": code, "message": message, "detail": detail})
}

// failErr maps domain errors onto HTTP statuses.
func failErr(c echo.Context, err error) error {
	var (
		validationErr *orchestrator.ValidationError
		notFoundErr   *routeros.NotFoundError
		connErr       *routeros.ConnectionError
		httpErr       *routeros.HTTPError
	)
	switch {
	case errors.As(err, &validationErr):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", validationErr.Error(), nil)
	case errors.As(err, &notFoundErr):
		return fail(c, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), nil)
	case errors.As(err, &connErr):
		return fail(c, http.StatusBadGateway, "DEVICE_UNREACHABLE", connErr.Error(), nil)
	case errors.As(err, &httpErr):
		return fail(c, http.StatusBadGateway, "DEVICE_ERROR", httpErr.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}
