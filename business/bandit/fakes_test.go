package bandit

import (
	"context"
	"errors"
	"sync"

	"myPriceLab/domain"
)

var errStoreDown = errors.New("store down")

type fakeExperimentRepo struct {
	mu sync.Mutex

	experiments map[string]*domain.Experiment
	metrics     map[string][]domain.ArmMetrics
	counts      map[string][]domain.AssignmentCount

	metricsErr map[string]error
	writeErr   map[string]error
	listErr    error

	written []domain.WeightUpdate
}

func newFakeExperimentRepo(exps ...*domain.Experiment) *fakeExperimentRepo {
	r := &fakeExperimentRepo{
		experiments: map[string]*domain.Experiment{},
		metrics:     map[string][]domain.ArmMetrics{},
		counts:      map[string][]domain.AssignmentCount{},
		metricsErr:  map[string]error{},
		writeErr:    map[string]error{},
	}
	for _, e := range exps {
		r.experiments[e.ID] = e
	}
	return r
}

func (r *fakeExperimentRepo) GetRunningExperiments(ctx context.Context, gameID string) ([]domain.Experiment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Experiment
	for _, e := range r.experiments {
		if e.IsRunning() && (gameID == "" || e.GameID == gameID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExperimentRepo) GetRunningExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	e, ok := r.experiments[experimentID]
	if !ok || !e.IsRunning() {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeExperimentRepo) GetAssignmentCounts(ctx context.Context, experimentID string) ([]domain.AssignmentCount, error) {
	return r.counts[experimentID], nil
}

func (r *fakeExperimentRepo) GetArmMetrics(ctx context.Context, experimentID string, timeframeDays int) ([]domain.ArmMetrics, error) {
	if err := r.metricsErr[experimentID]; err != nil {
		return nil, err
	}
	return r.metrics[experimentID], nil
}

func (r *fakeExperimentRepo) UpdateTrafficWeights(ctx context.Context, updates []domain.WeightUpdate) []domain.WeightWriteResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]domain.WeightWriteResult, 0, len(updates))
	for _, u := range updates {
		res := domain.WeightWriteResult{ArmID: u.ArmID, Weight: u.NewTrafficWeight, Err: r.writeErr[u.ArmID]}
		if res.Err == nil {
			r.written = append(r.written, u)
		}
		results = append(results, res)
	}
	return results
}

type fakeAssignmentRepo struct {
	mu      sync.Mutex
	rows    map[string]string
	saveErr error
	getErr  error
	saved   int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: map[string]string{}}
}

func (r *fakeAssignmentRepo) GetAssignment(ctx context.Context, experimentID, userID string) (string, bool, error) {
	if r.getErr != nil {
		return "", false, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	armID, ok := r.rows[experimentID+"/"+userID]
	return armID, ok, nil
}

func (r *fakeAssignmentRepo) SaveAssignment(ctx context.Context, a domain.ExperimentAssignment) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := a.ExperimentID + "/" + a.UserID
	if _, exists := r.rows[key]; !exists {
		r.rows[key] = a.ArmID
	}
	r.saved++
	return nil
}

type fakeAssignmentCache struct {
	mu   sync.Mutex
	rows map[string]string
	sets int
}

func newFakeAssignmentCache() *fakeAssignmentCache {
	return &fakeAssignmentCache{rows: map[string]string{}}
}

func (c *fakeAssignmentCache) Get(ctx context.Context, experimentID, userID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	armID, ok := c.rows[experimentID+"/"+userID]
	return armID, ok, nil
}

func (c *fakeAssignmentCache) Set(ctx context.Context, experimentID, userID, armID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[experimentID+"/"+userID] = armID
	c.sets++
	return nil
}

func runningExperiment(id string, armIDs ...string) *domain.Experiment {
	exp := &domain.Experiment{ID: id, GameID: "game-1", Name: id, Status: domain.ExperimentRunning}
	for i, armID := range armIDs {
		exp.Arms = append(exp.Arms, domain.ExperimentArm{
			ID:           armID,
			ExperimentID: id,
			Name:         "arm " + armID,
			IsControl:    i == 0,
			SKUVariantID: "sku-" + armID,
			Position:     i,
		})
	}
	return exp
}
