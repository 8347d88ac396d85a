package middleware

import (
	"myPriceLab/business/bandit"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// TraceID propagates the caller's X-Request-ID (or a new uuid) into the
// request context so service logs can be correlated.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := c.Request().Header.Get(HeaderRequestID)
			if tid == "" {
				tid = uuid.NewString()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(bandit.WithTraceID(req.Context(), tid)))
			c.Response().Header().Set(HeaderRequestID, tid)

			return next(c)
		}
	}
}
