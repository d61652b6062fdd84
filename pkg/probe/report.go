package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

const (
	StatusFileName = "test_results.txt"
	timeLayout     = "2006-01-02 15:04:05.000000"
)

// WriteStatusFile writes a short summary stamped with completedAt into dir.
// A missing dir is not an error: the file is skipped and the returned path is
// empty.
func WriteStatusFile(dir string, report models.ProbeReport, completedAt time.Time) (string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat output dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Test completed at %s\n", completedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Hostname: %s\n", report.Host.Hostname)
	fmt.Fprintf(&b, "Go version: %s\n", report.Host.RuntimeVer)
	fmt.Fprintf(&b, "CUDA available: %t\n", report.Accelerator.Available)

	path := filepath.Join(dir, StatusFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write status file: %w", err)
	}
	return path, nil
}
