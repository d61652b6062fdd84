package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

const (
	CheckpointDirName   = "checkpoints"
	BestModelFileName   = "best_model.json"
	ResultsFileName     = "training_results.json"
	ProgressionFileName = "training_progression.json"

	placeholderModelState = "fake_model_weights_here"
)

// CheckpointStore persists checkpoint records under <output>/checkpoints.
type CheckpointStore struct {
	dir string
}

func NewCheckpointStore(outputDir string) *CheckpointStore {
	return &CheckpointStore{dir: filepath.Join(outputDir, CheckpointDirName)}
}

func (s *CheckpointStore) CheckpointPath(epoch int) string {
	return filepath.Join(s.dir, fmt.Sprintf("checkpoint_epoch_%d.json", epoch))
}

func (s *CheckpointStore) BestPath() string {
	return filepath.Join(s.dir, BestModelFileName)
}

func (s *CheckpointStore) Save(metric models.EpochMetric) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}
	record := models.CheckpointRecord{
		Epoch:      metric.Epoch,
		Loss:       metric.Loss,
		Accuracy:   metric.Accuracy,
		ModelState: placeholderModelState,
	}
	path := s.CheckpointPath(metric.Epoch)
	if err := writeJSON(path, record, true); err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return path, nil
}

// SaveBest replaces best_model.json atomically so readers never observe a
// partially written file.
func (s *CheckpointStore) SaveBest(metric models.EpochMetric) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}
	record := models.BestModelRecord{
		Epoch:    metric.Epoch,
		Loss:     metric.Loss,
		Accuracy: metric.Accuracy,
	}
	path := s.BestPath()
	if err := writeJSONAtomic(path, record, false); err != nil {
		return "", fmt.Errorf("write best model: %w", err)
	}
	return path, nil
}

func marshal(v interface{}, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func writeJSON(path string, v interface{}, indent bool) error {
	payload, err := marshal(v, indent)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func writeJSONAtomic(path string, v interface{}, indent bool) error {
	payload, err := marshal(v, indent)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
