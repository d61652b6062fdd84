package training

import (
	"time"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"gorm.io/datatypes"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunModel struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Hostname        string            `gorm:"column:hostname" json:"hostname"`
	DataDir         string            `gorm:"column:data_dir" json:"data_dir"`
	OutputDir       string            `gorm:"column:output_dir" json:"output_dir"`
	Hyperparameters datatypes.JSONMap `gorm:"column:hyperparameters" json:"hyperparameters"`
	Status          string            `gorm:"column:status" json:"status"`
	CurrentEpoch    int               `gorm:"column:current_epoch" json:"current_epoch"`
	TotalEpochs     int               `gorm:"column:total_epochs" json:"total_epochs"`
	BestLoss        *float64          `gorm:"column:best_loss" json:"best_loss,omitempty"`
	Metrics         datatypes.JSONMap `gorm:"column:metrics" json:"metrics,omitempty"`
	ResultsPath     string            `gorm:"column:results_path" json:"results_path,omitempty"`
	ErrorMessage    string            `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at" json:"updated_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (RunModel) TableName() string {
	return "training_runs"
}

// EpochReport is handed to reporters after each epoch has been persisted.
type EpochReport struct {
	RunID       uuid.UUID
	Metric      models.EpochMetric
	TotalEpochs int
	BestLoss    float64
	Improved    bool
	Checkpoint  string
	Elapsed     time.Duration
}
