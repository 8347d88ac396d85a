package bandit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"myPriceLab/domain"
	"myPriceLab/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ---- Usecase / Service ----

type BanditService struct {
	experimentRepo  ExperimentRepository
	assignmentRepo  AssignmentRepository
	assignmentCache AssignmentCache
	cfg             Config

	samplerSeq atomic.Int64
}

// NewBanditService wires the gateway into the allocator. assignmentRepo and
// assignmentCache are optional; without them selection is stateless.
func NewBanditService(
	experimentRepo ExperimentRepository,
	assignmentRepo AssignmentRepository,
	assignmentCache AssignmentCache,
	cfg Config,
) *BanditService {
	return &BanditService{
		experimentRepo:  experimentRepo,
		assignmentRepo:  assignmentRepo,
		assignmentCache: assignmentCache,
		cfg:             cfg.withDefaults(),
	}
}

// newSampler returns a sampler with its own random source for one unit of work.
func (s *BanditService) newSampler() *ThompsonSampler {
	if s.cfg.Seed == 0 {
		return NewThompsonSampler(NewRandom())
	}
	n := s.samplerSeq.Add(1) - 1
	return NewThompsonSampler(NewSeededRandom(s.cfg.Seed + n))
}

func (s *BanditService) loadArmStats(ctx context.Context, exp *domain.Experiment) ([]domain.ArmStats, error) {
	metrics, err := s.experimentRepo.GetArmMetrics(ctx, exp.ID, s.cfg.MetricsWindowDays)
	if err != nil {
		return nil, fmt.Errorf("load arm metrics: %w", err)
	}
	return buildArmStats(exp.Arms, metrics), nil
}

//  Selection / serving

// SelectVariantForUser picks the arm to serve. It returns nil without error
// when the experiment does not exist, is not running, or has no arms; the
// caller should fall back to its default price.
func (s *BanditService) SelectVariantForUser(
	ctx context.Context,
	experimentID string,
	userID string,
) (*domain.VariantSelection, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if experimentID == "" {
		return nil, fmt.Errorf("%w: experiment_id is required", ErrInvalidArgument)
	}

	exp, err := s.experimentRepo.GetRunningExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil || !exp.IsRunning() || len(exp.Arms) == 0 {
		return nil, nil
	}

	// 1) sticky assignment
	if userID != "" {
		if arm, ok := s.stickyArm(ctx, exp, userID); ok {
			return s.selected(ctx, exp, arm, userID, domain.SelectionSticky), nil
		}
	}

	// 2) bandit choice
	var (
		armID  string
		reason string
	)
	if len(exp.Arms) == 1 {
		armID = exp.Arms[0].ID
		reason = domain.SelectionSingleArm
	} else {
		stats, err := s.loadArmStats(ctx, exp)
		if err != nil {
			return nil, err
		}

		sampler := s.newSampler()
		if !hasTrials(stats) {
			armID, err = sampler.SelectUniform(stats)
			reason = domain.SelectionColdStart
		} else {
			armID, err = sampler.SelectArm(stats)
			reason = domain.SelectionThompson
		}
		if err != nil {
			return nil, err
		}
	}

	arm, ok := findArm(exp.Arms, armID)
	if !ok {
		return nil, fmt.Errorf("selected arm %s not in experiment %s", armID, exp.ID)
	}

	// 3) pin the user to the arm
	if userID != "" {
		s.rememberAssignment(ctx, exp.ID, userID, arm.ID)
	}

	return s.selected(ctx, exp, arm, userID, reason), nil
}

func (s *BanditService) selected(
	ctx context.Context,
	exp *domain.Experiment,
	arm domain.ExperimentArm,
	userID string,
	reason string,
) *domain.VariantSelection {
	VariantSelectionsTotal.WithLabelValues(reason).Inc()

	logger.Debug("experiment_select_variant",
		"trace_id", TraceIDFromContext(ctx),
		"experiment_id", exp.ID,
		"user_id", userID,
		"arm_id", arm.ID,
		"reason", reason,
	)

	return &domain.VariantSelection{
		ExperimentID: exp.ID,
		ArmID:        arm.ID,
		ArmName:      arm.Name,
		SKUVariantID: arm.SKUVariantID,
		IsControl:    arm.IsControl,
		Reason:       reason,
	}
}

// stickyArm looks for an existing assignment, cache first. Lookup failures are
// logged and treated as a miss.
func (s *BanditService) stickyArm(ctx context.Context, exp *domain.Experiment, userID string) (domain.ExperimentArm, bool) {
	if s.assignmentCache != nil {
		armID, ok, err := s.assignmentCache.Get(ctx, exp.ID, userID)
		if err != nil {
			logger.Warn("experiment_assignment_cache_get_failed",
				"experiment_id", exp.ID, "user_id", userID, "error", err)
		} else if ok {
			if arm, found := findArm(exp.Arms, armID); found {
				return arm, true
			}
		}
	}

	if s.assignmentRepo == nil {
		return domain.ExperimentArm{}, false
	}

	armID, ok, err := s.assignmentRepo.GetAssignment(ctx, exp.ID, userID)
	if err != nil {
		logger.Warn("experiment_assignment_get_failed",
			"experiment_id", exp.ID, "user_id", userID, "error", err)
		return domain.ExperimentArm{}, false
	}
	if !ok {
		return domain.ExperimentArm{}, false
	}

	arm, found := findArm(exp.Arms, armID)
	if !found {
		// arm was removed from the experiment; reassign
		return domain.ExperimentArm{}, false
	}

	if s.assignmentCache != nil {
		if err := s.assignmentCache.Set(ctx, exp.ID, userID, arm.ID); err != nil {
			logger.Warn("experiment_assignment_cache_set_failed",
				"experiment_id", exp.ID, "user_id", userID, "error", err)
		}
	}
	return arm, true
}

// rememberAssignment is best effort: the selection is served even if it fails.
func (s *BanditService) rememberAssignment(ctx context.Context, experimentID, userID, armID string) {
	if s.assignmentRepo != nil {
		err := s.assignmentRepo.SaveAssignment(ctx, domain.ExperimentAssignment{
			ID:           uuid.NewString(),
			ExperimentID: experimentID,
			UserID:       userID,
			ArmID:        armID,
		})
		if err != nil {
			logger.Warn("experiment_assignment_save_failed",
				"experiment_id", experimentID, "user_id", userID, "arm_id", armID, "error", err)
		}
	}

	if s.assignmentCache != nil {
		if err := s.assignmentCache.Set(ctx, experimentID, userID, armID); err != nil {
			logger.Warn("experiment_assignment_cache_set_failed",
				"experiment_id", experimentID, "user_id", userID, "error", err)
		}
	}
}

//  Rebalancing

// UpdateTrafficWeights recomputes and persists the traffic weights of one
// running experiment. A missing or non-running experiment is an error.
// Individual weight writes that fail are logged and counted; the full list of
// computed updates is still returned.
func (s *BanditService) UpdateTrafficWeights(ctx context.Context, experimentID string) ([]domain.WeightUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	exp, err := s.experimentRepo.GetRunningExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil || !exp.IsRunning() {
		return nil, fmt.Errorf("%w: %s", ErrExperimentNotFound, experimentID)
	}

	return s.rebalance(ctx, exp)
}

func (s *BanditService) rebalance(ctx context.Context, exp *domain.Experiment) ([]domain.WeightUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(exp.Arms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoArms, exp.ID)
	}

	stats, err := s.loadArmStats(ctx, exp)
	if err != nil {
		RebalancesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	updates := s.newSampler().UpdateTrafficWeights(stats, s.cfg.MinTrafficWeight)
	results := s.experimentRepo.UpdateTrafficWeights(ctx, updates)

	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		WeightWriteFailuresTotal.Inc()
		logger.Warn("experiment_weight_write_failed",
			"trace_id", TraceIDFromContext(ctx),
			"experiment_id", exp.ID,
			"arm_id", r.ArmID,
			"weight", r.Weight,
			"error", r.Err,
		)
	}

	for _, u := range updates {
		ArmTrafficWeight.WithLabelValues(exp.ID, u.ArmID).Set(u.NewTrafficWeight)
	}

	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	RebalancesTotal.WithLabelValues(result).Inc()

	logger.Info("experiment_rebalance",
		"trace_id", TraceIDFromContext(ctx),
		"experiment_id", exp.ID,
		"arms", len(updates),
		"write_failures", failed,
	)

	return updates, nil
}

// UpdateAllRunningExperiments rebalances every running experiment with more
// than one arm, optionally scoped to a game. Experiments are processed by a
// bounded pool of workers; a failing experiment is logged and recorded with an
// empty update list without affecting the others.
func (s *BanditService) UpdateAllRunningExperiments(ctx context.Context, gameID string) (map[string][]domain.WeightUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	exps, err := s.experimentRepo.GetRunningExperiments(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load running experiments: %w", err)
	}

	var (
		mu      sync.Mutex
		results = make(map[string][]domain.WeightUpdate, len(exps))
		g       errgroup.Group
	)
	g.SetLimit(s.cfg.RebalanceWorkers)

	for i := range exps {
		exp := &exps[i]
		if len(exp.Arms) <= 1 {
			continue
		}

		g.Go(func() error {
			updates, err := s.rebalance(ctx, exp)
			if err != nil {
				logger.Error("experiment_rebalance_failed",
					"trace_id", TraceIDFromContext(ctx),
					"experiment_id", exp.ID,
					"error", err,
				)
				updates = []domain.WeightUpdate{}
			}

			mu.Lock()
			results[exp.ID] = updates
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

//  Stop rule

// ShouldStopExperiment reports whether the experiment has reached statistical
// significance. A missing experiment never stops. minSampleSize <= 0 uses the
// configured default.
func (s *BanditService) ShouldStopExperiment(ctx context.Context, experimentID string, minSampleSize int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}
	if minSampleSize <= 0 {
		minSampleSize = s.cfg.MinSampleSize
	}

	exp, err := s.experimentRepo.GetRunningExperiment(ctx, experimentID)
	if err != nil {
		return false, fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil || len(exp.Arms) == 0 {
		return false, nil
	}

	stats, err := s.loadArmStats(ctx, exp)
	if err != nil {
		return false, err
	}

	stop := s.newSampler().ShouldStopExperiment(stats, minSampleSize, s.cfg.ConfidenceThreshold)

	logger.Debug("experiment_should_stop",
		"trace_id", TraceIDFromContext(ctx),
		"experiment_id", exp.ID,
		"min_sample_size", minSampleSize,
		"should_stop", stop,
	)

	return stop, nil
}

//  Read models

// GetExperimentMetrics returns conversion metrics for every arm of a running
// experiment. days <= 0 uses the configured window.
func (s *BanditService) GetExperimentMetrics(ctx context.Context, experimentID string, days int) ([]domain.ConversionMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if days <= 0 {
		days = s.cfg.MetricsWindowDays
	}

	exp, err := s.experimentRepo.GetRunningExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: %s", ErrExperimentNotFound, experimentID)
	}

	metrics, err := s.experimentRepo.GetArmMetrics(ctx, exp.ID, days)
	if err != nil {
		return nil, fmt.Errorf("load arm metrics: %w", err)
	}

	stats := buildArmStats(exp.Arms, metrics)
	out := make([]domain.ConversionMetrics, 0, len(stats))
	for _, st := range stats {
		m := CalculateMetrics(st.Trials, st.Successes)
		m.ArmID = st.ArmID
		out = append(out, m)
	}
	return out, nil
}

func (s *BanditService) GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if experimentID == "" {
		return nil, fmt.Errorf("%w: experiment_id is required", ErrInvalidArgument)
	}

	counts, err := s.experimentRepo.GetAssignmentCounts(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment counts: %w", err)
	}
	return counts, nil
}

func findArm(arms []domain.ExperimentArm, armID string) (domain.ExperimentArm, bool) {
	for _, arm := range arms {
		if arm.ID == armID {
			return arm, true
		}
	}
	return domain.ExperimentArm{}, false
}
