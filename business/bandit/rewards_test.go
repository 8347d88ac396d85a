package bandit

import (
	"testing"

	"myPriceLab/domain"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMetrics(t *testing.T) {
	m := CalculateMetrics(200, 9)
	assert.Equal(t, int64(200), m.StoreViews)
	assert.Equal(t, int64(9), m.Purchases)
	assert.InDelta(t, 4.5, m.ConversionRate, 1e-12)

	assert.Equal(t, 0.0, CalculateMetrics(0, 0).ConversionRate)
	assert.Equal(t, 0.0, CalculateMetrics(0, 3).ConversionRate)
}

func TestBuildArmStats(t *testing.T) {
	arms := []domain.ExperimentArm{
		{ID: "X", IsControl: true},
		{ID: "Y"},
		{ID: "Z"},
		{ID: "W"},
	}
	metrics := []domain.ArmMetrics{
		{ArmID: "X", StoreViews: 3, Purchases: 1},
		{ArmID: "Z", StoreViews: 2, Purchases: 5},
		{ArmID: "W", StoreViews: -4, Purchases: -1},
		{ArmID: "unknown", StoreViews: 100, Purchases: 50},
	}

	got := buildArmStats(arms, metrics)

	assert.Equal(t, []domain.ArmStats{
		{ArmID: "X", IsControl: true, Successes: 1, Trials: 3},
		{ArmID: "Y", Successes: 0, Trials: 0},
		{ArmID: "Z", Successes: 2, Trials: 2},
		{ArmID: "W", Successes: 0, Trials: 0},
	}, got)
}
