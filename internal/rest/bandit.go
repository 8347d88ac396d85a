package rest

import (
	"context"
	"net/http"
	"time"

	"myPriceLab/domain"
	"myPriceLab/pkg/logger"
	"myPriceLab/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	BanditHandler struct {
		validate      *validator.Validate
		banditService BanditService
		timeout       time.Duration
	}

	BanditService interface {
		SelectVariantForUser(ctx context.Context, experimentID, userID string) (*domain.VariantSelection, error)
		UpdateTrafficWeights(ctx context.Context, experimentID string) ([]domain.WeightUpdate, error)
		UpdateAllRunningExperiments(ctx context.Context, gameID string) (map[string][]domain.WeightUpdate, error)
		ShouldStopExperiment(ctx context.Context, experimentID string, minSampleSize int) (bool, error)
		GetExperimentMetrics(ctx context.Context, experimentID string, days int) ([]domain.ConversionMetrics, error)
		GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error)
	}

	VariantQuery struct {
		ExperimentID string `param:"id" validate:"required,uuid"`
		UserID       string `query:"user_id" validate:"omitempty,max=128"`
	}

	ShouldStopQuery struct {
		ExperimentID  string `param:"id" validate:"required,uuid"`
		MinSampleSize int    `query:"min_sample_size" validate:"omitempty,min=1"`
	}

	MetricsQuery struct {
		ExperimentID string `param:"id" validate:"required,uuid"`
		Days         int    `query:"days" validate:"omitempty,min=1,max=90"`
	}

	ExperimentParam struct {
		ExperimentID string `param:"id" validate:"required,uuid"`
	}

	RebalanceAllQuery struct {
		GameID string `validate:"omitempty,uuid"`
	}
)

func NewBanditHandler(svc BanditService, timeout time.Duration) *BanditHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BanditHandler{
		validate:      validator.New(),
		banditService: svc,
		timeout:       timeout,
	}
}

// GET /api/v1/experiments/:id/variant?user_id=abc
func (h *BanditHandler) SelectVariant(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.VariantSelectLatency.Observe(time.Since(start).Seconds())
	}()

	var q VariantQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	selection, err := h.banditService.SelectVariantForUser(ctx, q.ExperimentID, q.UserID)
	if err != nil {
		metrics.VariantSelectRequests.WithLabelValues("error").Inc()
		logger.Error("Failed to select variant", "experiment_id", q.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}
	if selection == nil {
		metrics.VariantSelectRequests.WithLabelValues("none").Inc()
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no variant available for experiment"})
	}

	metrics.VariantSelectRequests.WithLabelValues("selected").Inc()
	return c.JSON(http.StatusOK, fres.Response.StatusOK(selection))
}

// POST /api/v1/experiments/:id/rebalance
func (h *BanditHandler) Rebalance(c echo.Context) error {
	var p ExperimentParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updates, err := h.banditService.UpdateTrafficWeights(ctx, p.ExperimentID)
	if err != nil {
		logger.Error("Failed to rebalance experiment", "experiment_id", p.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updates))
}

// POST /api/v1/experiments/rebalance?game_id=...
func (h *BanditHandler) RebalanceAll(c echo.Context) error {
	q := RebalanceAllQuery{GameID: c.QueryParam("game_id")}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	// a full pass may touch many experiments; allow more time than a single call
	ctx, cancel := context.WithTimeout(c.Request().Context(), 6*h.timeout)
	defer cancel()

	results, err := h.banditService.UpdateAllRunningExperiments(ctx, q.GameID)
	if err != nil {
		logger.Error("Failed to rebalance running experiments", "game_id", q.GameID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

// GET /api/v1/experiments/:id/should-stop?min_sample_size=100
func (h *BanditHandler) ShouldStop(c echo.Context) error {
	var q ShouldStopQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stop, err := h.banditService.ShouldStopExperiment(ctx, q.ExperimentID, q.MinSampleSize)
	if err != nil {
		logger.Error("Failed to evaluate stop rule", "experiment_id", q.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
		"experiment_id": q.ExperimentID,
		"should_stop":   stop,
	}))
}

// GET /api/v1/experiments/:id/metrics?days=7
func (h *BanditHandler) Metrics(c echo.Context) error {
	var q MetricsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.banditService.GetExperimentMetrics(ctx, q.ExperimentID, q.Days)
	if err != nil {
		logger.Error("Failed to load experiment metrics", "experiment_id", q.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}

// GET /api/v1/experiments/:id/assignments
func (h *BanditHandler) Assignments(c echo.Context) error {
	var p ExperimentParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	counts, err := h.banditService.GetAssignmentCounts(ctx, p.ExperimentID)
	if err != nil {
		logger.Error("Failed to count assignments", "experiment_id", p.ExperimentID, "error", err)
		return c.JSON(statusFromError(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(counts))
}
