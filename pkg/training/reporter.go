package training

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/kafka"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/observability/metrics"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/storage"
	"gorm.io/datatypes"
)

// Reporter is notified about run progress. Only filesystem writes are fatal
// to a run, so reporter errors are logged and otherwise ignored.
type Reporter interface {
	RunStarted(ctx context.Context, runID uuid.UUID, cfg models.RunConfig) error
	EpochCompleted(ctx context.Context, report EpochReport) error
	RunCompleted(ctx context.Context, summary models.ResultsSummary) error
	RunFailed(ctx context.Context, runID uuid.UUID, err error) error
}

type reporters []Reporter

func (rs reporters) started(ctx context.Context, runID uuid.UUID, cfg models.RunConfig) {
	for _, r := range rs {
		if err := r.RunStarted(ctx, runID, cfg); err != nil {
			logger.Log.WithError(err).Warn("reporter failed on run start")
		}
	}
}

func (rs reporters) epoch(ctx context.Context, report EpochReport) {
	for _, r := range rs {
		if err := r.EpochCompleted(ctx, report); err != nil {
			logger.Log.WithError(err).WithField("epoch", report.Metric.Epoch).Warn("reporter failed on epoch")
		}
	}
}

func (rs reporters) completed(ctx context.Context, summary models.ResultsSummary) {
	for _, r := range rs {
		if err := r.RunCompleted(ctx, summary); err != nil {
			logger.Log.WithError(err).Warn("reporter failed on run completion")
		}
	}
}

func (rs reporters) failed(ctx context.Context, runID uuid.UUID, runErr error) {
	for _, r := range rs {
		if err := r.RunFailed(ctx, runID, runErr); err != nil {
			logger.Log.WithError(err).Warn("reporter failed on run failure")
		}
	}
}

// MetricsReporter feeds the process-wide gauges served on /metrics.
type MetricsReporter struct{}

func (MetricsReporter) RunStarted(_ context.Context, _ uuid.UUID, cfg models.RunConfig) error {
	metrics.Init(cfg.Epochs)
	return nil
}

func (MetricsReporter) EpochCompleted(_ context.Context, report EpochReport) error {
	if report.Checkpoint != "" {
		metrics.ObserveCheckpoint()
	}
	metrics.ObserveEpoch(report.Metric.Epoch, report.Metric.Loss, report.Metric.Accuracy, report.BestLoss, report.Elapsed.Seconds())
	return nil
}

func (MetricsReporter) RunCompleted(context.Context, models.ResultsSummary) error {
	metrics.ObserveCompleted()
	return nil
}

func (MetricsReporter) RunFailed(context.Context, uuid.UUID, error) error {
	return nil
}

// CacheReporter mirrors epoch metrics into Redis.
type CacheReporter struct {
	Cache *storage.MetricsCache
}

func (CacheReporter) RunStarted(context.Context, uuid.UUID, models.RunConfig) error {
	return nil
}

func (c CacheReporter) EpochCompleted(ctx context.Context, report EpochReport) error {
	return c.Cache.StoreEpoch(ctx, report.RunID.String(), report.Metric)
}

func (c CacheReporter) RunCompleted(ctx context.Context, summary models.ResultsSummary) error {
	return c.Cache.StoreSummary(ctx, summary)
}

func (CacheReporter) RunFailed(context.Context, uuid.UUID, error) error {
	return nil
}

const eventSource = "fake-trainer"

// EventReporter publishes run lifecycle events to Kafka.
type EventReporter struct {
	Producer *kafka.Producer
}

func (e EventReporter) RunStarted(ctx context.Context, runID uuid.UUID, cfg models.RunConfig) error {
	return e.Producer.PublishEvent(ctx, "training.started", eventSource, map[string]interface{}{
		"run_id":          runID.String(),
		"hyperparameters": cfg,
	})
}

func (e EventReporter) EpochCompleted(ctx context.Context, report EpochReport) error {
	data := map[string]interface{}{
		"run_id":    report.RunID.String(),
		"epoch":     report.Metric.Epoch,
		"loss":      report.Metric.Loss,
		"accuracy":  report.Metric.Accuracy,
		"best_loss": report.BestLoss,
	}
	if err := e.Producer.PublishEvent(ctx, "training.epoch", eventSource, data); err != nil {
		return err
	}
	if report.Checkpoint == "" {
		return nil
	}
	return e.Producer.PublishEvent(ctx, "training.checkpoint", eventSource, map[string]interface{}{
		"run_id": report.RunID.String(),
		"epoch":  report.Metric.Epoch,
		"path":   report.Checkpoint,
		"best":   report.Improved,
	})
}

func (e EventReporter) RunCompleted(ctx context.Context, summary models.ResultsSummary) error {
	return e.Producer.PublishEvent(ctx, "training.completed", eventSource, map[string]interface{}{
		"run_id":         summary.RunID,
		"final_epoch":    summary.FinalEpoch,
		"final_loss":     summary.FinalLoss,
		"final_accuracy": summary.FinalAccuracy,
		"best_loss":      summary.BestLoss,
	})
}

func (e EventReporter) RunFailed(ctx context.Context, runID uuid.UUID, err error) error {
	return e.Producer.PublishEvent(ctx, "training.failed", eventSource, map[string]interface{}{
		"run_id": runID.String(),
		"error":  err.Error(),
	})
}

// RegistryReporter records runs in the training_runs table.
type RegistryReporter struct {
	Repo *Repository
}

func (r RegistryReporter) RunStarted(ctx context.Context, runID uuid.UUID, cfg models.RunConfig) error {
	hostname, _ := os.Hostname()
	now := time.Now().UTC()
	return r.Repo.Create(ctx, &RunModel{
		ID:              runID,
		Hostname:        hostname,
		DataDir:         cfg.DataDir,
		OutputDir:       cfg.OutputDir,
		Hyperparameters: hyperparameterMap(cfg),
		Status:          StatusRunning,
		TotalEpochs:     cfg.Epochs,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (r RegistryReporter) EpochCompleted(ctx context.Context, report EpochReport) error {
	return r.Repo.UpdateProgress(ctx, report.RunID, report.Metric.Epoch, report.BestLoss, map[string]interface{}{
		"loss":     report.Metric.Loss,
		"accuracy": report.Metric.Accuracy,
	})
}

func (r RegistryReporter) RunCompleted(ctx context.Context, summary models.ResultsSummary) error {
	runID, err := uuid.Parse(summary.RunID)
	if err != nil {
		return err
	}
	resultsPath := filepath.Join(summary.Hyperparameters.OutputDir, ResultsFileName)
	return r.Repo.Finish(ctx, runID, StatusCompleted, resultsPath, "")
}

func (r RegistryReporter) RunFailed(ctx context.Context, runID uuid.UUID, runErr error) error {
	return r.Repo.Finish(ctx, runID, StatusFailed, "", runErr.Error())
}

func hyperparameterMap(cfg models.RunConfig) datatypes.JSONMap {
	return datatypes.JSONMap{
		"data_dir":   cfg.DataDir,
		"output_dir": cfg.OutputDir,
		"epochs":     cfg.Epochs,
		"batch_size": cfg.BatchSize,
		"lr":         cfg.LearningRate,
		"seed":       cfg.Seed,
	}
}
