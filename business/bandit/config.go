package bandit

import (
	"context"
	"errors"

	"myPriceLab/domain"
)

var (
	ErrExperimentNotFound = errors.New("experiment not found or not running")
	ErrNoArms             = errors.New("experiment has no arms")
	ErrInvalidArgument    = errors.New("invalid argument")
)

type Config struct {
	// lowest traffic percentage any arm can be assigned
	MinTrafficWeight float64

	// trailing window for store views / purchases
	MetricsWindowDays int

	// stop rule
	MinSampleSize       int
	ConfidenceThreshold float64

	// max experiments rebalanced in parallel by UpdateAllRunningExperiments
	RebalanceWorkers int

	// 0 means unseeded; otherwise every sampler gets Seed+n for the n-th unit of work
	Seed int64
}

const (
	defaultMinTrafficWeight    = 5.0
	defaultMetricsWindowDays   = 7
	defaultMinSampleSize       = 100
	defaultConfidenceThreshold = 0.95
	defaultRebalanceWorkers    = 4
)

func DefaultConfig() Config {
	return Config{
		MinTrafficWeight:    defaultMinTrafficWeight,
		MetricsWindowDays:   defaultMetricsWindowDays,
		MinSampleSize:       defaultMinSampleSize,
		ConfidenceThreshold: defaultConfidenceThreshold,
		RebalanceWorkers:    defaultRebalanceWorkers,
	}
}

// withDefaults fills zero values so a partially built Config stays usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinTrafficWeight <= 0 {
		c.MinTrafficWeight = d.MinTrafficWeight
	}
	if c.MetricsWindowDays <= 0 {
		c.MetricsWindowDays = d.MetricsWindowDays
	}
	if c.MinSampleSize <= 0 {
		c.MinSampleSize = d.MinSampleSize
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold >= 1 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.RebalanceWorkers <= 0 {
		c.RebalanceWorkers = d.RebalanceWorkers
	}
	return c
}

// ExperimentRepository is the experiment data gateway.
type ExperimentRepository interface {
	GetRunningExperiments(ctx context.Context, gameID string) ([]domain.Experiment, error)
	GetRunningExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error)
	GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error)
	GetArmMetrics(ctx context.Context, experimentID string, timeframeDays int) ([]domain.ArmMetrics, error)
	UpdateTrafficWeights(ctx context.Context, updates []domain.WeightUpdate) []domain.WeightWriteResult
}

// AssignmentRepository stores sticky user -> arm assignments durably.
type AssignmentRepository interface {
	GetAssignment(ctx context.Context, experimentID, userID string) (string, bool, error)
	SaveAssignment(ctx context.Context, assignment domain.ExperimentAssignment) error
}

// AssignmentCache is a fast lookup in front of AssignmentRepository.
type AssignmentCache interface {
	Get(ctx context.Context, experimentID, userID string) (string, bool, error)
	Set(ctx context.Context, experimentID, userID, armID string) error
}
