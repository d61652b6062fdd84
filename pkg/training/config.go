package training

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid run config")

func DefaultRunConfig() models.RunConfig {
	return models.RunConfig{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         42,
	}
}

// ParseFlags builds a RunConfig from command-line arguments. Values from an
// optional --config YAML file are applied first; flags given explicitly on
// the command line take precedence over the file.
func ParseFlags(args []string, output io.Writer) (models.RunConfig, error) {
	cfg := DefaultRunConfig()

	fs := flag.NewFlagSet("fake-trainer", flag.ContinueOnError)
	fs.SetOutput(output)
	dataDir := fs.String("data-dir", "", "Data directory (required)")
	outputDir := fs.String("output-dir", "", "Output directory (required)")
	epochs := fs.Int("epochs", cfg.Epochs, "Number of epochs")
	batchSize := fs.Int("batch-size", cfg.BatchSize, "Batch size")
	lr := fs.Float64("lr", cfg.LearningRate, "Learning rate")
	seed := fs.Int64("seed", cfg.Seed, "Random seed")
	configPath := fs.String("config", "", "Optional YAML file with run settings")

	if err := fs.Parse(args); err != nil {
		return models.RunConfig{}, err
	}

	if *configPath != "" {
		fileCfg, err := LoadRunConfigFile(*configPath, cfg)
		if err != nil {
			return models.RunConfig{}, err
		}
		cfg = fileCfg
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.DataDir = *dataDir
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "epochs":
			cfg.Epochs = *epochs
		case "batch-size":
			cfg.BatchSize = *batchSize
		case "lr":
			cfg.LearningRate = *lr
		case "seed":
			cfg.Seed = *seed
		}
	})

	if err := Validate(cfg); err != nil {
		return models.RunConfig{}, err
	}
	return cfg, nil
}

// LoadRunConfigFile overlays the fields present in a YAML file onto base.
func LoadRunConfigFile(path string, base models.RunConfig) (models.RunConfig, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return models.RunConfig{}, fmt.Errorf("read run config %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return models.RunConfig{}, fmt.Errorf("parse run config %s: %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg models.RunConfig) error {
	switch {
	case cfg.DataDir == "":
		return fmt.Errorf("%w: --data-dir is required", ErrInvalidConfig)
	case cfg.OutputDir == "":
		return fmt.Errorf("%w: --output-dir is required", ErrInvalidConfig)
	case cfg.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidConfig, cfg.Epochs)
	case cfg.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, cfg.BatchSize)
	case math.IsNaN(cfg.LearningRate) || math.IsInf(cfg.LearningRate, 0) || cfg.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive, got %g", ErrInvalidConfig, cfg.LearningRate)
	}
	return nil
}
