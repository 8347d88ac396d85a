package domain

import "time"

type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentRunning   ExperimentStatus = "running"
	ExperimentPaused    ExperimentStatus = "paused"
	ExperimentCompleted ExperimentStatus = "completed"
	ExperimentArchived  ExperimentStatus = "archived"
)

// Experiment is a pricing test on one virtual item of one game.
type Experiment struct {
	ID            string           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	GameID        string           `gorm:"column:game_id;type:uuid;not null;index" json:"game_id"`
	VirtualItemID string           `gorm:"column:virtual_item_id;type:uuid;not null" json:"virtual_item_id"`
	Name          string           `gorm:"column:name;not null" json:"name"`
	Status        ExperimentStatus `gorm:"column:status;not null;index" json:"status"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Arms []ExperimentArm `gorm:"foreignKey:ExperimentID" json:"arms"`
}

func (Experiment) TableName() string {
	return "experiments"
}

func (e Experiment) IsRunning() bool {
	return e.Status == ExperimentRunning
}

// ExperimentArm is one price/quantity variant under test.
type ExperimentArm struct {
	ID            string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExperimentID  string    `gorm:"column:experiment_id;type:uuid;not null;index" json:"experiment_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	TrafficWeight float64   `gorm:"column:traffic_weight;type:numeric(5,2);not null" json:"traffic_weight"`
	IsControl     bool      `gorm:"column:is_control;not null;default:false" json:"is_control"`
	SKUVariantID  string    `gorm:"column:sku_variant_id;type:uuid" json:"sku_variant_id"`
	Position      int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ExperimentArm) TableName() string {
	return "experiment_arms"
}

const (
	EventStoreView = "store_view"

	PurchaseVerified = "verified"
)

// ExperimentEvent is a raw exposure event logged by the game client.
type ExperimentEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExperimentID string    `gorm:"column:experiment_id;type:uuid;not null;index" json:"experiment_id"`
	ArmID        string    `gorm:"column:arm_id;type:uuid;not null" json:"arm_id"`
	UserID       string    `gorm:"column:user_id;not null" json:"user_id"`
	EventType    string    `gorm:"column:event_type;not null" json:"event_type"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (ExperimentEvent) TableName() string {
	return "experiment_events"
}

// Purchase is a store purchase attributed to an experiment arm.
type Purchase struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExperimentID string    `gorm:"column:experiment_id;type:uuid;index" json:"experiment_id"`
	ArmID        string    `gorm:"column:arm_id;type:uuid" json:"arm_id"`
	UserID       string    `gorm:"column:user_id;not null" json:"user_id"`
	SKUVariantID string    `gorm:"column:sku_variant_id;type:uuid" json:"sku_variant_id"`
	Status       string    `gorm:"column:status;not null" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// ExperimentAssignment pins a user to an arm for the lifetime of the experiment.
type ExperimentAssignment struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExperimentID string    `gorm:"column:experiment_id;type:uuid;not null;uniqueIndex:idx_assignment_user" json:"experiment_id"`
	UserID       string    `gorm:"column:user_id;not null;uniqueIndex:idx_assignment_user" json:"user_id"`
	ArmID        string    `gorm:"column:arm_id;type:uuid;not null" json:"arm_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ExperimentAssignment) TableName() string {
	return "experiment_assignments"
}
