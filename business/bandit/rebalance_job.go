package bandit

import (
	"context"
	"fmt"
	"time"

	"myPriceLab/pkg/logger"

	"github.com/google/uuid"
)

// Locker guards the rebalance pass so only one replica runs it at a time.
type Locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// RebalanceJob runs UpdateAllRunningExperiments on a schedule.
type RebalanceJob struct {
	service *BanditService
	locker  Locker
	lockKey int64
}

// NewRebalanceJob builds the job. locker may be nil when only one instance runs.
func NewRebalanceJob(service *BanditService, locker Locker, lockKey int64) *RebalanceJob {
	return &RebalanceJob{
		service: service,
		locker:  locker,
		lockKey: lockKey,
	}
}

// Tick performs one pass. It matches scheduler.TickFunc.
func (j *RebalanceJob) Tick(ctx context.Context, at time.Time) error {
	ctx = WithTraceID(ctx, uuid.NewString())

	if j.locker != nil {
		unlock, acquired, err := j.locker.TryAdvisoryLock(ctx, j.lockKey)
		if err != nil {
			return fmt.Errorf("acquire rebalance lock: %w", err)
		}
		if !acquired {
			RebalanceJobSkipped.Inc()
			logger.Info("experiment_rebalance_skipped",
				"trace_id", TraceIDFromContext(ctx),
				"reason", "lock held by another instance",
			)
			return nil
		}
		defer unlock()
	}

	start := time.Now()
	results, err := j.service.UpdateAllRunningExperiments(ctx, "")
	if err != nil {
		return err
	}
	RebalanceJobDuration.Observe(time.Since(start).Seconds())
	RebalanceJobLastSuccess.SetToCurrentTime()

	failed := 0
	for _, updates := range results {
		if len(updates) == 0 {
			failed++
		}
	}

	logger.Info("experiment_rebalance_pass",
		"trace_id", TraceIDFromContext(ctx),
		"tick", at,
		"experiments", len(results),
		"failed", failed,
		"took", time.Since(start),
	)
	return nil
}
