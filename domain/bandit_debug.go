package domain

// ArmPosterior is an operator view of one arm's posterior.
type ArmPosterior struct {
	ArmID         string  `json:"arm_id"`
	IsControl     bool    `json:"is_control"`
	TrafficWeight float64 `json:"traffic_weight"` // currently persisted
	Trials        int64   `json:"trials"`
	Successes     int64   `json:"successes"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	Mean          float64 `json:"mean"`
	Variance      float64 `json:"variance"`
	Confidence    float64 `json:"confidence"`     // 1 / (1 + variance)
	ProbBest      float64 `json:"prob_best"`      // Monte Carlo share of draws this arm won
	PValueVsCtrl  float64 `json:"p_value_vs_ctrl"` // 1 for the control or when untestable
}

type ExperimentDebug struct {
	ExperimentID string         `json:"experiment_id"`
	Draws        int            `json:"draws"`
	ColdStart    bool           `json:"cold_start"`
	Arms         []ArmPosterior `json:"arms"`
}
