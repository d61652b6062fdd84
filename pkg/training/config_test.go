package training

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"--data-dir", "/data", "--output-dir", "/out"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, models.RunConfig{
		DataDir:      "/data",
		OutputDir:    "/out",
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         42,
	}, cfg)
}

func TestParseFlagsRequiresDirectories(t *testing.T) {
	_, err := ParseFlags([]string{"--output-dir", "/out"}, io.Discard)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseFlags([]string{"--data-dir", "/data"}, io.Discard)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseFlagsRejectsInvalidValues(t *testing.T) {
	base := []string{"--data-dir", "/d", "--output-dir", "/o"}
	for _, extra := range [][]string{
		{"--epochs", "0"},
		{"--batch-size", "-1"},
		{"--lr", "0"},
		{"--lr", "NaN"},
		{"--lr", "Inf"},
		{"--lr", "-Inf"},
	} {
		_, err := ParseFlags(append(append([]string{}, base...), extra...), io.Discard)
		assert.ErrorIs(t, err, ErrInvalidConfig, "args %v", extra)
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	_, err := ParseFlags([]string{"--nope"}, io.Discard)
	assert.Error(t, err)
}

func TestParseFlagsConfigFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /cluster/data\noutput_dir: /cluster/out\nepochs: 25\nlr: 0.01\n"), 0o644))

	cfg, err := ParseFlags([]string{"--config", path, "--epochs", "3"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/cluster/data", cfg.DataDir)
	assert.Equal(t, "/cluster/out", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoadRunConfigFileErrors(t *testing.T) {
	_, err := LoadRunConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultRunConfig())
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("epochs: [1, 2"), 0o644))
	_, err = LoadRunConfigFile(bad, DefaultRunConfig())
	assert.Error(t, err)
}
