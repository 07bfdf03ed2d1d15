package middleware

import (
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HTTPAccessLogger logs every HTTP request with method, URI and status.
func HTTPAccessLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request",
				"remote_ip", c.RealIP(),
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}
