package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myPriceLab/business/bandit"
	"myPriceLab/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExperimentRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

var (
	_ bandit.ExperimentRepository = (*ExperimentRepository)(nil)
	_ bandit.AssignmentRepository = (*ExperimentRepository)(nil)
)

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db, now: time.Now}
}

// ---- Experiments ----

func orderedArms(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

// GetRunningExperiments lists running experiments with their arms. An empty
// gameID lists all games.
func (r *ExperimentRepository) GetRunningExperiments(ctx context.Context, gameID string) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).
		Preload("Arms", orderedArms).
		Where("status = ?", domain.ExperimentRunning)
	if gameID != "" {
		q = q.Where("game_id = ?", gameID)
	}

	var exps []domain.Experiment
	if err := q.Order("created_at ASC").Find(&exps).Error; err != nil {
		return nil, fmt.Errorf("failed to query running experiments: %w", err)
	}

	for i := range exps {
		exps[i].Arms = sanitizeArms(exps[i].Arms)
	}
	return exps, nil
}

// GetRunningExperiment returns nil when the experiment does not exist or is
// not running.
func (r *ExperimentRepository) GetRunningExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var exp domain.Experiment
	err := r.DB.WithContext(ctx).
		Preload("Arms", orderedArms).
		Where("id = ? AND status = ?", experimentID, domain.ExperimentRunning).
		First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query experiment %s: %w", experimentID, err)
	}

	exp.Arms = sanitizeArms(exp.Arms)
	return &exp, nil
}

// sanitizeArms drops rows without an id and clamps weights to [0, 100].
func sanitizeArms(arms []domain.ExperimentArm) []domain.ExperimentArm {
	out := arms[:0]
	for _, arm := range arms {
		if arm.ID == "" {
			continue
		}
		arm.TrafficWeight = min(max(arm.TrafficWeight, 0), 100)
		out = append(out, arm)
	}
	return out
}

// ---- Metrics ----

type armCount struct {
	ArmID string `gorm:"column:arm_id"`
	Total int64  `gorm:"column:total"`
}

// GetArmMetrics counts store views and verified purchases per arm within the
// trailing window. Arms with neither are absent from the result.
func (r *ExperimentRepository) GetArmMetrics(ctx context.Context, experimentID string, timeframeDays int) ([]domain.ArmMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if timeframeDays <= 0 {
		timeframeDays = 7
	}

	cutoff := r.now().AddDate(0, 0, -timeframeDays)

	var views []armCount
	if err := r.DB.WithContext(ctx).
		Model(&domain.ExperimentEvent{}).
		Select("arm_id, COUNT(*) AS total").
		Where("experiment_id = ? AND event_type = ? AND created_at >= ?", experimentID, domain.EventStoreView, cutoff).
		Group("arm_id").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to count store views: %w", err)
	}

	var purchases []armCount
	if err := r.DB.WithContext(ctx).
		Model(&domain.Purchase{}).
		Select("arm_id, COUNT(*) AS total").
		Where("experiment_id = ? AND status = ? AND created_at >= ?", experimentID, domain.PurchaseVerified, cutoff).
		Group("arm_id").
		Scan(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	return mergeArmCounts(views, purchases), nil
}

// mergeArmCounts joins view and purchase counts on arm id, keeping the order in
// which arms first appear.
func mergeArmCounts(views, purchases []armCount) []domain.ArmMetrics {
	idx := make(map[string]int, len(views)+len(purchases))
	out := make([]domain.ArmMetrics, 0, len(views)+len(purchases))

	slot := func(armID string) *domain.ArmMetrics {
		if i, ok := idx[armID]; ok {
			return &out[i]
		}
		idx[armID] = len(out)
		out = append(out, domain.ArmMetrics{ArmID: armID})
		return &out[len(out)-1]
	}

	for _, v := range views {
		if v.ArmID == "" {
			continue
		}
		slot(v.ArmID).StoreViews += v.Total
	}
	for _, p := range purchases {
		if p.ArmID == "" {
			continue
		}
		slot(p.ArmID).Purchases += p.Total
	}
	return out
}

// ---- Traffic weights ----

// UpdateTrafficWeights writes each weight (rounded to 2 decimals) on its own.
// A failed write is reported in its result and does not stop the others.
func (r *ExperimentRepository) UpdateTrafficWeights(ctx context.Context, updates []domain.WeightUpdate) []domain.WeightWriteResult {
	results := make([]domain.WeightWriteResult, 0, len(updates))

	for _, u := range updates {
		weight := decimal.NewFromFloat(u.NewTrafficWeight).Round(2).InexactFloat64()
		res := domain.WeightWriteResult{ArmID: u.ArmID, Weight: weight}

		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("context error: %w", err)
			results = append(results, res)
			continue
		}

		tx := r.DB.WithContext(ctx).
			Model(&domain.ExperimentArm{}).
			Where("id = ?", u.ArmID).
			Updates(map[string]any{
				"traffic_weight": weight,
				"updated_at":     r.now(),
			})
		switch {
		case tx.Error != nil:
			res.Err = fmt.Errorf("failed to update traffic weight: %w", tx.Error)
		case tx.RowsAffected == 0:
			res.Err = fmt.Errorf("arm %s not found", u.ArmID)
		}

		results = append(results, res)
	}

	return results
}

// ---- Assignments ----

func (r *ExperimentRepository) GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var counts []domain.AssignmentCount
	if err := r.DB.WithContext(ctx).
		Model(&domain.ExperimentAssignment{}).
		Select("arm_id, COUNT(*) AS count").
		Where("experiment_id = ?", experimentID).
		Group("arm_id").
		Order("arm_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	return counts, nil
}

func (r *ExperimentRepository) GetAssignment(ctx context.Context, experimentID, userID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context error: %w", err)
	}

	var row domain.ExperimentAssignment
	err := r.DB.WithContext(ctx).
		Where("experiment_id = ? AND user_id = ?", experimentID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query assignment: %w", err)
	}

	return row.ArmID, true, nil
}

// SaveAssignment keeps the first assignment for a user; later ones are ignored.
func (r *ExperimentRepository) SaveAssignment(ctx context.Context, assignment domain.ExperimentAssignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "experiment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&assignment).Error; err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	return nil
}
