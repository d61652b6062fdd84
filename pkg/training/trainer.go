package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/console"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/probe"
)

type Options struct {
	EpochDuration    time.Duration
	DataLoadDuration time.Duration
	Accelerator      probe.Accelerator
	Reporters        []Reporter
	Output           io.Writer
}

// Trainer runs a simulated training loop for a single RunConfig.
type Trainer struct {
	cfg       models.RunConfig
	runID     uuid.UUID
	sim       *Simulator
	store     *CheckpointStore
	accel     probe.Accelerator
	reporters reporters
	epochWait time.Duration
	loadWait  time.Duration
	out       *console.Printer
}

func NewTrainer(cfg models.RunConfig, opts Options) *Trainer {
	if opts.Accelerator == nil {
		opts.Accelerator = probe.None{}
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	return &Trainer{
		cfg:       cfg,
		runID:     uuid.New(),
		sim:       NewSimulator(cfg.Seed, cfg.Epochs),
		store:     NewCheckpointStore(cfg.OutputDir),
		accel:     opts.Accelerator,
		reporters: reporters(opts.Reporters),
		epochWait: opts.EpochDuration,
		loadWait:  opts.DataLoadDuration,
		out:       console.New(opts.Output, 60),
	}
}

func (t *Trainer) RunID() uuid.UUID {
	return t.runID
}

// Run executes every epoch and writes the results summary. Any filesystem
// error aborts the run and is returned unchanged in meaning.
func (t *Trainer) Run(ctx context.Context) (models.ResultsSummary, error) {
	log := logger.WithField("run_id", t.runID)
	started := time.Now().UTC()

	t.printHeader(ctx)

	if err := os.MkdirAll(t.cfg.OutputDir, 0o755); err != nil {
		return models.ResultsSummary{}, fmt.Errorf("create output dir: %w", err)
	}

	t.out.Line("Loading dataset...")
	if _, err := os.Stat(t.cfg.DataDir); err == nil {
		t.out.Success("Found data directory: %s", t.cfg.DataDir)
	} else {
		log.WithField("data_dir", t.cfg.DataDir).Warn("Data directory not found, using synthetic data")
		t.out.Warn("Data directory not found, using fake data")
	}
	if err := sleepContext(ctx, t.loadWait); err != nil {
		return models.ResultsSummary{}, err
	}

	t.reporters.started(ctx, t.runID, t.cfg)

	summary, err := t.train(ctx, started)
	if err != nil {
		log.WithError(err).Error("training run failed")
		t.reporters.failed(context.WithoutCancel(ctx), t.runID, err)
		return models.ResultsSummary{}, err
	}

	t.reporters.completed(ctx, summary)
	return summary, nil
}

func (t *Trainer) train(ctx context.Context, started time.Time) (models.ResultsSummary, error) {
	t.out.Blank()
	t.out.Line("Starting training...")

	var (
		last        models.EpochMetric
		bestLoss    = math.Inf(1)
		checkpoints []string
	)

	for i := 0; i < t.cfg.Epochs; i++ {
		epochStart := time.Now()
		t.out.Blank()
		t.out.Line("Epoch %d/%d", i+1, t.cfg.Epochs)
		t.out.Rule("-", 40)

		metric := t.sim.Next(i)
		if err := sleepContext(ctx, t.epochWait); err != nil {
			return models.ResultsSummary{}, err
		}
		last = metric

		t.out.Line("Loss: %.4f", metric.Loss)
		t.out.Line("Accuracy: %.4f", metric.Accuracy)

		improved := metric.Loss < bestLoss
		var checkpoint string
		// Both conditions can hold in the same epoch; the checkpoint is
		// written once and the best file is refreshed separately.
		if metric.Epoch%5 == 0 || improved {
			path, err := t.store.Save(metric)
			if err != nil {
				return models.ResultsSummary{}, err
			}
			checkpoint = path
			checkpoints = append(checkpoints, path)
			t.out.Line("Saved checkpoint: %s", path)

			if improved {
				bestLoss = metric.Loss
				if _, err := t.store.SaveBest(metric); err != nil {
					return models.ResultsSummary{}, err
				}
				t.out.Line("New best model saved!")
			}
		}

		if err := t.writeProgression(metric, bestLoss, started); err != nil {
			return models.ResultsSummary{}, err
		}

		t.reporters.epoch(ctx, EpochReport{
			RunID:       t.runID,
			Metric:      metric,
			TotalEpochs: t.cfg.Epochs,
			BestLoss:    bestLoss,
			Improved:    improved,
			Checkpoint:  checkpoint,
			Elapsed:     time.Since(epochStart),
		})
	}

	summary := models.ResultsSummary{
		RunID:           t.runID.String(),
		FinalEpoch:      t.cfg.Epochs,
		FinalLoss:       last.Loss,
		FinalAccuracy:   last.Accuracy,
		BestLoss:        bestLoss,
		Hyperparameters: t.cfg,
		Checkpoints:     checkpoints,
		StartedAt:       started,
		CompletedAt:     time.Now().UTC(),
	}

	resultsPath := filepath.Join(t.cfg.OutputDir, ResultsFileName)
	if err := writeJSON(resultsPath, summary, true); err != nil {
		return models.ResultsSummary{}, fmt.Errorf("write results: %w", err)
	}

	t.out.Blank()
	t.out.Banner("TRAINING COMPLETED!")
	t.out.Line("Final Loss: %.4f", summary.FinalLoss)
	t.out.Line("Final Accuracy: %.4f", summary.FinalAccuracy)
	t.out.Line("Best Loss: %.4f", summary.BestLoss)
	t.out.Line("Results saved to: %s", resultsPath)
	t.out.Rule("=", 60)

	return summary, nil
}

func (t *Trainer) printHeader(ctx context.Context) {
	t.out.Banner("FAKE ML TRAINING SCRIPT")
	t.out.Field("Run ID", t.runID)
	t.out.Field("Data directory", t.cfg.DataDir)
	t.out.Field("Output directory", t.cfg.OutputDir)
	t.out.Field("Epochs", t.cfg.Epochs)
	t.out.Field("Batch size", t.cfg.BatchSize)
	t.out.Field("Learning rate", t.cfg.LearningRate)
	t.out.Field("Random seed", t.cfg.Seed)
	t.out.Rule("=", 60)

	t.out.Section("System Information:")
	info := probe.DetectAccelerator(ctx, t.accel)
	if info.Available && len(info.Devices) > 0 {
		t.out.Field("CUDA available", true)
		t.out.Field("GPU count", len(info.Devices))
		t.out.Field("GPU name", info.Devices[0].Name)
		t.out.Line("GPU memory: %.1f GB", probe.MemoryGB(info.Devices[0]))
	} else {
		t.out.Line("No GPU detected, using CPU")
	}
	t.out.Blank()
}

func (t *Trainer) writeProgression(metric models.EpochMetric, bestLoss float64, started time.Time) error {
	status := models.ProgressionStatus{
		CurrentEpoch: int64(metric.Epoch),
		TotalEpochs:  int64(t.cfg.Epochs),
		Message:      fmt.Sprintf("epoch %d/%d", metric.Epoch, t.cfg.Epochs),
		Metrics: map[string]interface{}{
			"loss":      metric.Loss,
			"accuracy":  metric.Accuracy,
			"best_loss": bestLoss,
		},
		Timestamp: time.Now().Unix(),
		StartTime: started.Unix(),
	}
	path := filepath.Join(t.cfg.OutputDir, ProgressionFileName)
	if err := writeJSONAtomic(path, status, true); err != nil {
		return fmt.Errorf("write progression: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsInterrupted reports whether err came from cancelling the run context.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
