package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	started   int
	epochs    []EpochReport
	summaries []models.ResultsSummary
	failures  []error
}

func (r *recordingReporter) RunStarted(context.Context, uuid.UUID, models.RunConfig) error {
	r.started++
	return nil
}

func (r *recordingReporter) EpochCompleted(_ context.Context, report EpochReport) error {
	r.epochs = append(r.epochs, report)
	return fmt.Errorf("ignored")
}

func (r *recordingReporter) RunCompleted(_ context.Context, summary models.ResultsSummary) error {
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *recordingReporter) RunFailed(_ context.Context, _ uuid.UUID, err error) error {
	r.failures = append(r.failures, err)
	return nil
}

func testConfig(t *testing.T, epochs int, seed int64) models.RunConfig {
	t.Helper()
	return models.RunConfig{
		DataDir:      t.TempDir(),
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		Epochs:       epochs,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         seed,
	}
}

func readJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestSingleEpochRun(t *testing.T) {
	cfg := testConfig(t, 1, 0)
	var out bytes.Buffer

	summary, err := NewTrainer(cfg, Options{Output: &out}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FinalEpoch)

	var results models.ResultsSummary
	readJSON(t, filepath.Join(cfg.OutputDir, ResultsFileName), &results)
	assert.Equal(t, 1, results.FinalEpoch)
	assert.Equal(t, cfg, results.Hyperparameters)
	assert.Equal(t, results.FinalLoss, results.BestLoss)

	var ckpt models.CheckpointRecord
	readJSON(t, filepath.Join(cfg.OutputDir, "checkpoints", "checkpoint_epoch_1.json"), &ckpt)
	assert.Equal(t, 1, ckpt.Epoch)
	assert.Equal(t, "fake_model_weights_here", ckpt.ModelState)

	text := out.String()
	assert.Contains(t, text, "FAKE ML TRAINING SCRIPT")
	assert.Contains(t, text, "No GPU detected, using CPU")
	assert.Contains(t, text, "Found data directory")
	assert.Contains(t, text, "Epoch 1/1")
	assert.Contains(t, text, "New best model saved!")
	assert.Contains(t, text, "TRAINING COMPLETED!")
}

func TestCheckpointPolicyAndBestModel(t *testing.T) {
	cfg := testConfig(t, 23, 42)

	summary, err := NewTrainer(cfg, Options{}).Run(context.Background())
	require.NoError(t, err)

	sim := NewSimulator(cfg.Seed, cfg.Epochs)
	best := math.Inf(1)
	var expected []string
	for i := 0; i < cfg.Epochs; i++ {
		m := sim.Next(i)
		improved := m.Loss < best
		path := filepath.Join(cfg.OutputDir, "checkpoints", fmt.Sprintf("checkpoint_epoch_%d.json", m.Epoch))
		if m.Epoch%5 == 0 || improved {
			expected = append(expected, path)
			assert.FileExists(t, path)
		} else {
			assert.NoFileExists(t, path)
		}
		if improved {
			best = m.Loss
		}
	}

	assert.Equal(t, expected, summary.Checkpoints)
	assert.Equal(t, best, summary.BestLoss)

	var bestRecord models.BestModelRecord
	readJSON(t, filepath.Join(cfg.OutputDir, "checkpoints", BestModelFileName), &bestRecord)
	assert.Equal(t, best, bestRecord.Loss)

	var progression models.ProgressionStatus
	readJSON(t, filepath.Join(cfg.OutputDir, ProgressionFileName), &progression)
	assert.Equal(t, int64(23), progression.CurrentEpoch)
	assert.Equal(t, int64(23), progression.TotalEpochs)
}

func TestRunsAreReproducible(t *testing.T) {
	first := testConfig(t, 6, 1234)
	second := first
	second.OutputDir = filepath.Join(t.TempDir(), "again")

	a := &recordingReporter{}
	b := &recordingReporter{}
	_, err := NewTrainer(first, Options{Reporters: []Reporter{a}}).Run(context.Background())
	require.NoError(t, err)
	_, err = NewTrainer(second, Options{Reporters: []Reporter{b}}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, a.epochs, 6)
	require.Len(t, b.epochs, 6)
	for i := range a.epochs {
		assert.Equal(t, a.epochs[i].Metric, b.epochs[i].Metric)
	}
}

func TestMissingDataDirIsNotFatal(t *testing.T) {
	cfg := testConfig(t, 2, 3)
	cfg.DataDir = filepath.Join(t.TempDir(), "absent")
	var out bytes.Buffer

	_, err := NewTrainer(cfg, Options{Output: &out}).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Data directory not found, using fake data")
}

func TestReportersReceiveLifecycle(t *testing.T) {
	cfg := testConfig(t, 5, 9)
	rec := &recordingReporter{}

	tr := NewTrainer(cfg, Options{Reporters: []Reporter{rec}})
	summary, err := tr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.started)
	require.Len(t, rec.epochs, 5)
	assert.Equal(t, tr.RunID(), rec.epochs[0].RunID)
	assert.NotEmpty(t, rec.epochs[4].Checkpoint, "epoch 5 always checkpoints")
	require.Len(t, rec.summaries, 1)
	assert.Equal(t, summary.RunID, rec.summaries[0].RunID)
	assert.Empty(t, rec.failures)
}

func TestFilesystemFailureAbortsRun(t *testing.T) {
	cfg := testConfig(t, 3, 1)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.OutputDir = filepath.Join(blocker, "out")

	_, err := NewTrainer(cfg, Options{}).Run(context.Background())
	assert.Error(t, err)
}

func TestCheckpointWriteFailureReportsFailure(t *testing.T) {
	cfg := testConfig(t, 3, 1)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	// A regular file where the checkpoint directory belongs.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, CheckpointDirName), nil, 0o644))
	rec := &recordingReporter{}

	_, err := NewTrainer(cfg, Options{Reporters: []Reporter{rec}}).Run(context.Background())
	require.Error(t, err)
	assert.Len(t, rec.failures, 1)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, ResultsFileName))
}

func TestCancelledRunStops(t *testing.T) {
	cfg := testConfig(t, 3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrainer(cfg, Options{EpochDuration: 1}).Run(ctx)
	require.Error(t, err)
	assert.True(t, IsInterrupted(err))
}
