package models

import (
	"time"
)

// Event bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // training.epoch, training.checkpoint, training.completed, probe.completed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Training records
type EpochMetric struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

type CheckpointRecord struct {
	Epoch      int     `json:"epoch"`
	Loss       float64 `json:"loss"`
	Accuracy   float64 `json:"accuracy"`
	ModelState string  `json:"model_state"`
}

type BestModelRecord struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// RunConfig mirrors the CLI surface of the trainer, keyed the way the flags
// are named. It is stored verbatim as the summary's hyperparameters.
type RunConfig struct {
	DataDir      string  `json:"data_dir" yaml:"data_dir"`
	OutputDir    string  `json:"output_dir" yaml:"output_dir"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	LearningRate float64 `json:"lr" yaml:"lr"`
	Seed         int64   `json:"seed" yaml:"seed"`
}

type ResultsSummary struct {
	RunID           string    `json:"run_id"`
	FinalEpoch      int       `json:"final_epoch"`
	FinalLoss       float64   `json:"final_loss"`
	FinalAccuracy   float64   `json:"final_accuracy"`
	BestLoss        float64   `json:"best_loss"`
	Hyperparameters RunConfig `json:"hyperparameters"`
	Checkpoints     []string  `json:"checkpoints"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ProgressionStatus is rewritten after every epoch so schedulers can poll
// training progress from the output directory.
type ProgressionStatus struct {
	CurrentEpoch int64                  `json:"current_epoch"`
	TotalEpochs  int64                  `json:"total_epochs"`
	Message      string                 `json:"message,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
	Timestamp    int64                  `json:"timestamp"`
	StartTime    int64                  `json:"start_time"`
}

// Probe records
type HostInfo struct {
	Hostname      string    `json:"hostname"`
	Timestamp     time.Time `json:"timestamp"`
	WorkingDir    string    `json:"working_dir"`
	Executable    string    `json:"executable"`
	RuntimeVer    string    `json:"runtime_version"`
	OS            string    `json:"os"`
	Arch          string    `json:"arch"`
	NumCPU        int       `json:"num_cpu"`
	CPUModel      string    `json:"cpu_model"`
	TotalMemoryGB float64   `json:"total_memory_gb"`
}

type AcceleratorDevice struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	MemoryMiB int64  `json:"memory_mib"`
}

type AcceleratorInfo struct {
	Available     bool                `json:"available"`
	Vendor        string              `json:"vendor,omitempty"`
	DriverVersion string              `json:"driver_version,omitempty"`
	CUDAVersion   string              `json:"cuda_version,omitempty"`
	Devices       []AcceleratorDevice `json:"devices,omitempty"`
}

type ComputeResult struct {
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Shape    string        `json:"shape"`
	Device   string        `json:"device"`
	Duration time.Duration `json:"duration"`
	Checksum float64       `json:"checksum"`
}

type ProbeReport struct {
	ID          string          `json:"id"`
	Host        HostInfo        `json:"host"`
	Accelerator AcceleratorInfo `json:"accelerator"`
	Compute     ComputeResult   `json:"compute"`
	StatusFile  string          `json:"status_file,omitempty"`
}
