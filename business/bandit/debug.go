package bandit

import (
	"context"
	"fmt"

	"myPriceLab/domain"
	"myPriceLab/pkg/logger"
)

const (
	defaultDebugDraws = 2000
	maxDebugDraws     = 100000
)

// DebugExperiment returns posterior parameters per arm together with a Monte
// Carlo estimate of how often each arm would win a Thompson draw.
func (s *BanditService) DebugExperiment(ctx context.Context, experimentID string, draws int) (*domain.ExperimentDebug, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if draws <= 0 {
		draws = defaultDebugDraws
	}
	draws = min(draws, maxDebugDraws)

	exp, err := s.experimentRepo.GetRunningExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: %s", ErrExperimentNotFound, experimentID)
	}

	stats, err := s.loadArmStats(ctx, exp)
	if err != nil {
		return nil, err
	}

	logger.Debug("experiment_debug",
		"trace_id", TraceIDFromContext(ctx),
		"experiment_id", exp.ID,
		"arms", len(stats),
		"draws", draws,
	)

	return debugPosteriors(s.newSampler(), exp, stats, draws), nil
}

func debugPosteriors(sampler *ThompsonSampler, exp *domain.Experiment, stats []domain.ArmStats, draws int) *domain.ExperimentDebug {
	out := &domain.ExperimentDebug{
		ExperimentID: exp.ID,
		Draws:        draws,
		ColdStart:    !hasTrials(stats),
		Arms:         make([]domain.ArmPosterior, len(stats)),
	}

	ctrl := controlIndex(stats)
	for i, st := range stats {
		alpha, beta := posterior(st)
		variance := betaVariance(alpha, beta)

		pValue := 1.0
		if ctrl >= 0 && i != ctrl {
			c := stats[ctrl]
			if _, p, ok := twoProportionZTest(c.Successes, c.Trials, st.Successes, st.Trials); ok {
				pValue = p
			}
		}

		out.Arms[i] = domain.ArmPosterior{
			ArmID:         st.ArmID,
			IsControl:     st.IsControl,
			TrafficWeight: exp.Arms[i].TrafficWeight,
			Trials:        st.Trials,
			Successes:     st.Successes,
			Alpha:         alpha,
			Beta:          beta,
			Mean:          betaMean(alpha, beta),
			Variance:      variance,
			Confidence:    1 / (1 + variance),
			PValueVsCtrl:  pValue,
		}
	}

	if len(stats) == 0 {
		return out
	}

	wins := make(map[string]int, len(stats))
	for i := 0; i < draws; i++ {
		id, err := sampler.SelectArm(stats)
		if err != nil {
			break
		}
		wins[id]++
	}
	for i := range out.Arms {
		out.Arms[i].ProbBest = float64(wins[out.Arms[i].ArmID]) / float64(draws)
	}
	return out
}
