//go:build !integration

package bandit

import (
	"context"
	"testing"

	"myPriceLab/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugExperiment(t *testing.T) {
	exp := runningExperiment("exp", "ctrl", "treat")
	exp.Arms[0].TrafficWeight = 50
	exp.Arms[1].TrafficWeight = 50
	repo := newFakeExperimentRepo(exp)
	repo.metrics["exp"] = []domain.ArmMetrics{
		{ArmID: "ctrl", StoreViews: 10000, Purchases: 500},
		{ArmID: "treat", StoreViews: 10000, Purchases: 2000},
	}
	svc := NewBanditService(repo, nil, nil, seededConfig())

	out, err := svc.DebugExperiment(context.Background(), "exp", 500)
	require.NoError(t, err)
	require.Len(t, out.Arms, 2)

	assert.Equal(t, 500, out.Draws)
	assert.False(t, out.ColdStart)

	ctrl, treat := out.Arms[0], out.Arms[1]
	assert.Equal(t, 501.0, ctrl.Alpha)
	assert.Equal(t, 9501.0, ctrl.Beta)
	assert.Equal(t, 50.0, ctrl.TrafficWeight)
	assert.Equal(t, 1.0, ctrl.PValueVsCtrl)
	assert.Less(t, treat.PValueVsCtrl, 0.05)
	assert.InDelta(t, 1.0, ctrl.ProbBest+treat.ProbBest, 1e-9)
	assert.Greater(t, treat.ProbBest, 0.99)
}

func TestDebugExperiment_ColdStartAndNotFound(t *testing.T) {
	repo := newFakeExperimentRepo(runningExperiment("exp", "a", "b"))
	svc := NewBanditService(repo, nil, nil, seededConfig())

	out, err := svc.DebugExperiment(context.Background(), "exp", 0)
	require.NoError(t, err)
	assert.True(t, out.ColdStart)
	assert.Equal(t, defaultDebugDraws, out.Draws)
	for _, arm := range out.Arms {
		assert.Equal(t, 0.5, arm.Mean)
	}

	_, err = svc.DebugExperiment(context.Background(), "missing", 10)
	require.ErrorIs(t, err, ErrExperimentNotFound)
}
