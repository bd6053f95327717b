package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
)

// RequestID assigns X-Request-Id and copies it into the request context so
// service logs can be correlated.
func RequestID() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{
			Generator: func() string { return uuid.NewString() },
		}),
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				rid := c.Response().Header().Get(echo.HeaderXRequestID)
				req := c.Request()
				c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
				return next(c)
			}
		},
	}
}
