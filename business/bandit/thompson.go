package bandit

import (
	"math"

	"myPriceLab/domain"
)

// ThompsonSampler allocates traffic across experiment arms using Beta-Bernoulli
// Thompson Sampling. It holds no state besides its random source.
type ThompsonSampler struct {
	rng *Random
}

func NewThompsonSampler(rng *Random) *ThompsonSampler {
	if rng == nil {
		rng = NewRandom()
	}
	return &ThompsonSampler{rng: rng}
}

// SelectArm draws one posterior sample per arm and returns the id of the arm
// with the largest draw. Ties keep the first arm. A single arm is returned
// without touching the random source.
func (s *ThompsonSampler) SelectArm(arms []domain.ArmStats) (string, error) {
	if len(arms) == 0 {
		return "", ErrNoArms
	}
	if len(arms) == 1 {
		return arms[0].ArmID, nil
	}

	bestID := ""
	bestSample := math.Inf(-1)
	for _, arm := range arms {
		alpha, beta := posterior(arm)
		sample := s.rng.Beta(alpha, beta)
		if sample > bestSample {
			bestSample = sample
			bestID = arm.ArmID
		}
	}

	return bestID, nil
}

// SelectUniform picks an arm uniformly at random. Used while no arm has data.
func (s *ThompsonSampler) SelectUniform(arms []domain.ArmStats) (string, error) {
	if len(arms) == 0 {
		return "", ErrNoArms
	}
	return arms[s.rng.Intn(len(arms))].ArmID, nil
}

// UpdateTrafficWeights turns posterior means into traffic percentages.
// Every arm keeps at least minTrafficWeight; the floor wins over exact
// renormalization, so the total can drift slightly from 100 when many arms
// are clamped.
func (s *ThompsonSampler) UpdateTrafficWeights(arms []domain.ArmStats, minTrafficWeight float64) []domain.WeightUpdate {
	if len(arms) == 0 {
		return []domain.WeightUpdate{}
	}

	means := make([]float64, len(arms))
	confidence := make([]float64, len(arms))
	totalMean := 0.0
	for i, arm := range arms {
		alpha, beta := posterior(arm)
		means[i] = betaMean(alpha, beta)
		confidence[i] = 1 / (1 + betaVariance(alpha, beta))
		totalMean += means[i]
	}

	out := make([]domain.WeightUpdate, len(arms))

	// no data yet (or a degenerate posterior): split evenly with no confidence
	if totalMean == 0 || !hasTrials(arms) {
		equal := 100 / float64(len(arms))
		for i, arm := range arms {
			out[i] = domain.WeightUpdate{ArmID: arm.ArmID, NewTrafficWeight: equal}
		}
		return out
	}

	weights := make([]float64, len(arms))
	for i := range arms {
		weights[i] = math.Max(means[i]/totalMean*100, minTrafficWeight)
	}

	if sum := sumOf(weights); sum != 100 {
		scale := 100 / sum
		for i := range weights {
			weights[i] = math.Max(weights[i]*scale, minTrafficWeight)
		}
	}

	// the control arm must never be starved or the stop rule loses its baseline
	if ctrl := controlIndex(arms); ctrl >= 0 && weights[ctrl] < minTrafficWeight {
		weights[ctrl] = minTrafficWeight
		remaining := 100 - minTrafficWeight

		others := 0.0
		for i := range weights {
			if i != ctrl {
				others += weights[i]
			}
		}
		if others > 0 {
			for i := range weights {
				if i != ctrl {
					weights[i] = math.Max(weights[i]/others*remaining, minTrafficWeight)
				}
			}
		}
	}

	for i, arm := range arms {
		out[i] = domain.WeightUpdate{
			ArmID:            arm.ArmID,
			NewTrafficWeight: weights[i],
			Confidence:       confidence[i],
		}
	}
	return out
}

// ShouldStopExperiment reports whether any treatment arm differs from the
// control arm at the given confidence level. Nothing is decided before
// minSampleSize trials per arm have accumulated on average.
func (s *ThompsonSampler) ShouldStopExperiment(arms []domain.ArmStats, minSampleSize int, confidenceThreshold float64) bool {
	if len(arms) == 0 {
		return false
	}

	var total int64
	for _, arm := range arms {
		total += arm.Trials
	}
	if total < int64(minSampleSize)*int64(len(arms)) {
		return false
	}

	ctrl := controlIndex(arms)
	if ctrl < 0 {
		return false
	}
	control := arms[ctrl]

	alpha := 1 - confidenceThreshold
	for i, arm := range arms {
		if i == ctrl {
			continue
		}
		_, p, ok := twoProportionZTest(control.Successes, control.Trials, arm.Successes, arm.Trials)
		if !ok {
			continue
		}
		if p < alpha {
			return true
		}
	}

	return false
}

// controlIndex returns the index of the single control arm, or -1 when there
// is none or more than one.
func controlIndex(arms []domain.ArmStats) int {
	idx := -1
	for i, arm := range arms {
		if !arm.IsControl {
			continue
		}
		if idx >= 0 {
			return -1
		}
		idx = i
	}
	return idx
}

func hasTrials(arms []domain.ArmStats) bool {
	for _, arm := range arms {
		if arm.Trials > 0 {
			return true
		}
	}
	return false
}

func sumOf(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
