package rest

import (
	"context"
	"net/http"
	"time"

	"myPriceLab/domain"
	"myPriceLab/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	BanditAdminHandler struct {
		validate *validator.Validate
		debugger ExperimentDebugger
		timeout  time.Duration
	}

	ExperimentDebugger interface {
		DebugExperiment(ctx context.Context, experimentID string, draws int) (*domain.ExperimentDebug, error)
	}

	DebugQuery struct {
		ExperimentID string `param:"id" validate:"required,uuid"`
		Draws        int    `query:"draws" validate:"omitempty,min=1,max=100000"`
	}
)

func NewBanditAdminHandler(debugger ExperimentDebugger, timeout time.Duration) *BanditAdminHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BanditAdminHandler{
		validate: validator.New(),
		debugger: debugger,
		timeout:  timeout,
	}
}

// GET /api/v1/admin/experiments/:id/debug?draws=2000
func (h *BanditAdminHandler) Debug(c echo.Context) error {
	var q DebugQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.debugger.DebugExperiment(ctx, q.ExperimentID, q.Draws)
	if err != nil {
		logger.Error("Failed to debug experiment", "experiment_id", q.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}
