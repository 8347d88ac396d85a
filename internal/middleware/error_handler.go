package middleware

import (
	"errors"
	"net/http"

	"myPriceLab/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler renders errors that escape handlers (unknown routes, bind
// failures, panics caught by Recover) as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("http_error",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, errorResponse{Message: msg})
	}
	if writeErr != nil {
		logger.Error("http_error_write_failed", "error", writeErr)
	}
}
