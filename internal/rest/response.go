package rest

import (
	"context"
	"errors"
	"net/http"

	"myPriceLab/business/bandit"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, bandit.ErrExperimentNotFound):
		return http.StatusNotFound
	case errors.Is(err, bandit.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
