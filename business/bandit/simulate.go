package bandit

import (
	"fmt"

	"myPriceLab/domain"
)

// SimulationOptions describes an offline run against known conversion rates.
// The first arm is the control.
type SimulationOptions struct {
	Rates            []float64
	Rounds           int
	RebalanceEvery   int
	MinTrafficWeight float64
	MinSampleSize    int
	Confidence       float64
	Seed             int64
}

type SimulatedArm struct {
	ArmID          string  `json:"arm_id"`
	TrueRate       float64 `json:"true_rate"`
	Trials         int64   `json:"trials"`
	Successes      int64   `json:"successes"`
	ConversionRate float64 `json:"conversion_rate"`
	TrafficWeight  float64 `json:"traffic_weight"`
}

type SimulationResult struct {
	Rounds     int            `json:"rounds"`
	Arms       []SimulatedArm `json:"arms"`
	StopRound  int            `json:"stop_round"` // 0 when the stop rule never fired
	Rebalances int            `json:"rebalances"`
}

// Simulate replays Thompson selection against fixed conversion rates. Each
// round serves one arm and draws a conversion with that arm's true rate.
func Simulate(opts SimulationOptions) (SimulationResult, error) {
	if len(opts.Rates) == 0 {
		return SimulationResult{}, ErrNoArms
	}
	if opts.Rounds <= 0 {
		return SimulationResult{}, fmt.Errorf("%w: rounds must be positive", ErrInvalidArgument)
	}
	for i, r := range opts.Rates {
		if r < 0 || r > 1 {
			return SimulationResult{}, fmt.Errorf("%w: rate %d out of [0, 1]: %v", ErrInvalidArgument, i, r)
		}
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = defaultConfidenceThreshold
	}
	if opts.MinSampleSize <= 0 {
		opts.MinSampleSize = defaultMinSampleSize
	}

	var rng *Random
	if opts.Seed != 0 {
		rng = NewSeededRandom(opts.Seed)
	} else {
		rng = NewRandom()
	}
	sampler := NewThompsonSampler(rng)

	stats := make([]domain.ArmStats, len(opts.Rates))
	index := make(map[string]int, len(opts.Rates))
	for i := range opts.Rates {
		id := fmt.Sprintf("arm-%d", i)
		stats[i] = domain.ArmStats{ArmID: id, IsControl: i == 0}
		index[id] = i
	}

	res := SimulationResult{Rounds: opts.Rounds}
	var weights []domain.WeightUpdate

	for round := 1; round <= opts.Rounds; round++ {
		var (
			armID string
			err   error
		)
		if hasTrials(stats) {
			armID, err = sampler.SelectArm(stats)
		} else {
			armID, err = sampler.SelectUniform(stats)
		}
		if err != nil {
			return SimulationResult{}, err
		}

		i := index[armID]
		stats[i].Trials++
		if rng.Uniform() < opts.Rates[i] {
			stats[i].Successes++
		}

		if opts.RebalanceEvery > 0 && round%opts.RebalanceEvery == 0 {
			weights = sampler.UpdateTrafficWeights(stats, opts.MinTrafficWeight)
			res.Rebalances++
		}
		if res.StopRound == 0 && sampler.ShouldStopExperiment(stats, opts.MinSampleSize, opts.Confidence) {
			res.StopRound = round
		}
	}

	if weights == nil {
		weights = sampler.UpdateTrafficWeights(stats, opts.MinTrafficWeight)
	}

	res.Arms = make([]SimulatedArm, len(stats))
	for i, st := range stats {
		m := CalculateMetrics(st.Trials, st.Successes)
		res.Arms[i] = SimulatedArm{
			ArmID:          st.ArmID,
			TrueRate:       opts.Rates[i],
			Trials:         st.Trials,
			Successes:      st.Successes,
			ConversionRate: m.ConversionRate,
			TrafficWeight:  weights[i].NewTrafficWeight,
		}
	}
	return res, nil
}
