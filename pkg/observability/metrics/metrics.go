package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
)

var (
	trainingEpoch        atomic.Int64
	trainingTotalEpochs  atomic.Int64
	trainingCheckpoints  atomic.Int64
	trainingLoss         atomic.Uint64
	trainingAccuracy     atomic.Uint64
	trainingBestLoss     atomic.Uint64
	trainingCompleted    atomic.Int64
	trainingEpochSeconds atomic.Uint64
)

func Init(totalEpochs int) {
	trainingEpoch.Store(0)
	trainingTotalEpochs.Store(int64(totalEpochs))
	trainingCheckpoints.Store(0)
	trainingCompleted.Store(0)
	storeFloat(&trainingLoss, 0)
	storeFloat(&trainingAccuracy, 0)
	storeFloat(&trainingBestLoss, math.Inf(1))
	storeFloat(&trainingEpochSeconds, 0)
}

func ObserveEpoch(epoch int, loss, accuracy, bestLoss, seconds float64) {
	trainingEpoch.Store(int64(epoch))
	storeFloat(&trainingLoss, loss)
	storeFloat(&trainingAccuracy, accuracy)
	storeFloat(&trainingBestLoss, bestLoss)
	storeFloat(&trainingEpochSeconds, seconds)
}

func ObserveCheckpoint() {
	trainingCheckpoints.Add(1)
}

func ObserveCompleted() {
	trainingCompleted.Store(1)
}

// Snapshot is the JSON view served next to the Prometheus text.
type Snapshot struct {
	Epoch       int64   `json:"epoch"`
	TotalEpochs int64   `json:"total_epochs"`
	Loss        float64 `json:"loss"`
	Accuracy    float64 `json:"accuracy"`
	BestLoss    float64 `json:"best_loss"`
	Checkpoints int64   `json:"checkpoints"`
	Completed   bool    `json:"completed"`
}

func Current() Snapshot {
	best := loadFloat(&trainingBestLoss)
	if math.IsInf(best, 1) {
		best = 0
	}
	return Snapshot{
		Epoch:       trainingEpoch.Load(),
		TotalEpochs: trainingTotalEpochs.Load(),
		Loss:        loadFloat(&trainingLoss),
		Accuracy:    loadFloat(&trainingAccuracy),
		BestLoss:    best,
		Checkpoints: trainingCheckpoints.Load(),
		Completed:   trainingCompleted.Load() == 1,
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP euler_training_epoch Last completed training epoch.\n")
	fmt.Fprintf(w, "# TYPE euler_training_epoch gauge\n")
	fmt.Fprintf(w, "euler_training_epoch %d\n", trainingEpoch.Load())

	fmt.Fprintf(w, "# HELP euler_training_epochs_total Number of epochs configured for the run.\n")
	fmt.Fprintf(w, "# TYPE euler_training_epochs_total gauge\n")
	fmt.Fprintf(w, "euler_training_epochs_total %d\n", trainingTotalEpochs.Load())

	fmt.Fprintf(w, "# HELP euler_training_loss Loss reported by the last completed epoch.\n")
	fmt.Fprintf(w, "# TYPE euler_training_loss gauge\n")
	fmt.Fprintf(w, "euler_training_loss %g\n", loadFloat(&trainingLoss))

	fmt.Fprintf(w, "# HELP euler_training_accuracy Accuracy reported by the last completed epoch.\n")
	fmt.Fprintf(w, "# TYPE euler_training_accuracy gauge\n")
	fmt.Fprintf(w, "euler_training_accuracy %g\n", loadFloat(&trainingAccuracy))

	fmt.Fprintf(w, "# HELP euler_training_best_loss Lowest loss observed so far.\n")
	fmt.Fprintf(w, "# TYPE euler_training_best_loss gauge\n")
	fmt.Fprintf(w, "euler_training_best_loss %g\n", loadFloat(&trainingBestLoss))

	fmt.Fprintf(w, "# HELP euler_training_epoch_duration_seconds Wall-clock duration of the last epoch.\n")
	fmt.Fprintf(w, "# TYPE euler_training_epoch_duration_seconds gauge\n")
	fmt.Fprintf(w, "euler_training_epoch_duration_seconds %g\n", loadFloat(&trainingEpochSeconds))

	fmt.Fprintf(w, "# HELP euler_training_checkpoints_total Checkpoint files written by the run.\n")
	fmt.Fprintf(w, "# TYPE euler_training_checkpoints_total counter\n")
	fmt.Fprintf(w, "euler_training_checkpoints_total %d\n", trainingCheckpoints.Load())

	fmt.Fprintf(w, "# HELP euler_training_completed Whether the run has written its results summary.\n")
	fmt.Fprintf(w, "# TYPE euler_training_completed gauge\n")
	fmt.Fprintf(w, "euler_training_completed %d\n", trainingCompleted.Load())
}

func storeFloat(v *atomic.Uint64, f float64) {
	v.Store(math.Float64bits(f))
}

func loadFloat(v *atomic.Uint64) float64 {
	return math.Float64frombits(v.Load())
}
