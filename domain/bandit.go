package domain

// ArmStats is the allocator's view of an arm: observed trials and successes
// over the metrics window.
type ArmStats struct {
	ArmID     string `json:"arm_id"`
	IsControl bool   `json:"is_control"`
	Successes int64  `json:"successes"`
	Trials    int64  `json:"trials"`
}

// ArmMetrics is the per-arm aggregation of raw events within a time window.
type ArmMetrics struct {
	ArmID      string `json:"arm_id" gorm:"column:arm_id"`
	StoreViews int64  `json:"store_views" gorm:"column:store_views"`
	Purchases  int64  `json:"purchases" gorm:"column:purchases"`
}

type ConversionMetrics struct {
	ArmID          string  `json:"arm_id,omitempty"`
	StoreViews     int64   `json:"store_views"`
	Purchases      int64   `json:"purchases"`
	ConversionRate float64 `json:"conversion_rate"` // percent
}

type WeightUpdate struct {
	ArmID            string  `json:"arm_id"`
	NewTrafficWeight float64 `json:"new_traffic_weight"`
	Confidence       float64 `json:"confidence"`
}

// WeightWriteResult reports the outcome of persisting one WeightUpdate.
type WeightWriteResult struct {
	ArmID  string
	Weight float64
	Err    error
}

type AssignmentCount struct {
	ArmID string `json:"arm_id" gorm:"column:arm_id"`
	Count int64  `json:"count" gorm:"column:count"`
}

const (
	SelectionSticky    = "sticky"
	SelectionSingleArm = "single_arm"
	SelectionColdStart = "cold_start"
	SelectionThompson  = "thompson"
)

type VariantSelection struct {
	ExperimentID string `json:"experiment_id"`
	ArmID        string `json:"arm_id"`
	ArmName      string `json:"arm_name"`
	SKUVariantID string `json:"sku_variant_id"`
	IsControl    bool   `json:"is_control"`
	Reason       string `json:"reason"`
}
