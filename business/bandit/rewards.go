package bandit

import (
	"myPriceLab/domain"
)

// CalculateMetrics returns the conversion rate in percent.
func CalculateMetrics(storeViews, purchases int64) domain.ConversionMetrics {
	rate := 0.0
	if storeViews > 0 {
		rate = float64(purchases) / float64(storeViews) * 100
	}
	return domain.ConversionMetrics{
		StoreViews:     storeViews,
		Purchases:      purchases,
		ConversionRate: rate,
	}
}

// buildArmStats turns a metrics snapshot into allocator input: a store view is
// a trial, a verified purchase is a success. Arms missing from the snapshot
// count as zero. Counts are coerced so that 0 <= successes <= trials.
func buildArmStats(arms []domain.ExperimentArm, metrics []domain.ArmMetrics) []domain.ArmStats {
	byArm := make(map[string]domain.ArmMetrics, len(metrics))
	for _, m := range metrics {
		byArm[m.ArmID] = m
	}

	out := make([]domain.ArmStats, 0, len(arms))
	for _, arm := range arms {
		m := byArm[arm.ID]

		trials := max(m.StoreViews, 0)
		successes := min(max(m.Purchases, 0), trials)

		out = append(out, domain.ArmStats{
			ArmID:     arm.ID,
			IsControl: arm.IsControl,
			Successes: successes,
			Trials:    trials,
		})
	}
	return out
}
