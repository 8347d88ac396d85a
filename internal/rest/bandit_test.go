package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myPriceLab/business/bandit"
	"myPriceLab/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	expID  = "6f1c2a4e-8d3b-4c7a-9e21-0b5d7f3a9c11"
	gameID = "0e4b7c2d-1a9f-4e3b-8c6d-5f2a7b9e0d44"
)

type fakeBanditService struct {
	selection *domain.VariantSelection
	err       error

	gotExperimentID string
	gotUserID       string
	gotGameID       string
	gotMinSample    int
	gotDays         int
}

func (f *fakeBanditService) SelectVariantForUser(ctx context.Context, experimentID, userID string) (*domain.VariantSelection, error) {
	f.gotExperimentID, f.gotUserID = experimentID, userID
	return f.selection, f.err
}

func (f *fakeBanditService) UpdateTrafficWeights(ctx context.Context, experimentID string) ([]domain.WeightUpdate, error) {
	f.gotExperimentID = experimentID
	if f.err != nil {
		return nil, f.err
	}
	return []domain.WeightUpdate{{ArmID: "arm-a", NewTrafficWeight: 40, Confidence: 0.99}}, nil
}

func (f *fakeBanditService) UpdateAllRunningExperiments(ctx context.Context, gameID string) (map[string][]domain.WeightUpdate, error) {
	f.gotGameID = gameID
	if f.err != nil {
		return nil, f.err
	}
	return map[string][]domain.WeightUpdate{expID: {}}, nil
}

func (f *fakeBanditService) ShouldStopExperiment(ctx context.Context, experimentID string, minSampleSize int) (bool, error) {
	f.gotExperimentID, f.gotMinSample = experimentID, minSampleSize
	return true, f.err
}

func (f *fakeBanditService) GetExperimentMetrics(ctx context.Context, experimentID string, days int) ([]domain.ConversionMetrics, error) {
	f.gotExperimentID, f.gotDays = experimentID, days
	if f.err != nil {
		return nil, f.err
	}
	return []domain.ConversionMetrics{{ArmID: "arm-a", StoreViews: 4, Purchases: 1, ConversionRate: 25}}, nil
}

func (f *fakeBanditService) GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error) {
	f.gotExperimentID = experimentID
	return []domain.AssignmentCount{{ArmID: "arm-a", Count: 7}}, f.err
}

func newTestServer(svc BanditService) *echo.Echo {
	h := NewBanditHandler(svc, time.Second)

	e := echo.New()
	g := e.Group("/api/v1/experiments")
	g.POST("/rebalance", h.RebalanceAll)
	g.GET("/:id/variant", h.SelectVariant)
	g.POST("/:id/rebalance", h.Rebalance)
	g.GET("/:id/should-stop", h.ShouldStop)
	g.GET("/:id/metrics", h.Metrics)
	g.GET("/:id/assignments", h.Assignments)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSelectVariant(t *testing.T) {
	svc := &fakeBanditService{selection: &domain.VariantSelection{
		ExperimentID: expID,
		ArmID:        "arm-b",
		SKUVariantID: "sku-b",
		Reason:       domain.SelectionThompson,
	}}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/variant?user_id=player-9")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"arm_id":"arm-b"`)
	assert.Contains(t, rec.Body.String(), `"reason":"thompson"`)
	assert.Equal(t, expID, svc.gotExperimentID)
	assert.Equal(t, "player-9", svc.gotUserID)
}

func TestSelectVariant_NoVariant(t *testing.T) {
	e := newTestServer(&fakeBanditService{})

	rec := do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/variant")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no variant available")
}

func TestSelectVariant_InvalidID(t *testing.T) {
	svc := &fakeBanditService{}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/experiments/not-a-uuid/variant")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.gotExperimentID)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: %s", bandit.ErrExperimentNotFound, expID), http.StatusNotFound},
		{fmt.Errorf("%w: bad", bandit.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("load: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("load experiment: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		e := newTestServer(&fakeBanditService{err: tt.err})
		rec := do(e, http.MethodPost, "/api/v1/experiments/"+expID+"/rebalance")
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), `"message"`)
	}
}

func TestRebalance(t *testing.T) {
	svc := &fakeBanditService{}
	e := newTestServer(svc)

	rec := do(e, http.MethodPost, "/api/v1/experiments/"+expID+"/rebalance")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new_traffic_weight":40`)
	assert.Equal(t, expID, svc.gotExperimentID)
}

func TestRebalanceAll(t *testing.T) {
	svc := &fakeBanditService{}
	e := newTestServer(svc)

	rec := do(e, http.MethodPost, "/api/v1/experiments/rebalance?game_id="+gameID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gameID, svc.gotGameID)
	assert.Contains(t, rec.Body.String(), expID)

	rec = do(e, http.MethodPost, "/api/v1/experiments/rebalance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.gotGameID)

	rec = do(e, http.MethodPost, "/api/v1/experiments/rebalance?game_id=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShouldStop(t *testing.T) {
	svc := &fakeBanditService{}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/should-stop?min_sample_size=250")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"should_stop":true`)
	assert.Equal(t, 250, svc.gotMinSample)
}

func TestMetrics(t *testing.T) {
	svc := &fakeBanditService{}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/metrics?days=14")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conversion_rate":25`)
	assert.Equal(t, 14, svc.gotDays)

	rec = do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/metrics?days=365")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignments(t *testing.T) {
	e := newTestServer(&fakeBanditService{})

	rec := do(e, http.MethodGet, "/api/v1/experiments/"+expID+"/assignments")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":7`)
}
