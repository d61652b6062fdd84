package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

var ErrAcceleratorUnavailable = errors.New("accelerator unavailable")

// Accelerator reports the GPUs visible to the process. Implementations
// return ErrAcceleratorUnavailable (possibly wrapped) when no device can be
// used, which callers treat as a CPU-only environment.
type Accelerator interface {
	Detect(ctx context.Context) (models.AcceleratorInfo, error)
}

// None is used when GPU detection is disabled.
type None struct{}

func (None) Detect(context.Context) (models.AcceleratorInfo, error) {
	return models.AcceleratorInfo{}, ErrAcceleratorUnavailable
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// NvidiaSMI queries NVIDIA devices through the nvidia-smi binary shipped
// with the driver.
type NvidiaSMI struct {
	path     string
	lookPath func(string) (string, error)
	run      commandRunner
}

func NewNvidiaSMI(path string) *NvidiaSMI {
	if path == "" {
		path = "nvidia-smi"
	}
	return &NvidiaSMI{path: path, lookPath: exec.LookPath, run: execRunner}
}

var cudaVersionPattern = regexp.MustCompile(`CUDA Version:\s*([0-9.]+)`)

func (n *NvidiaSMI) Detect(ctx context.Context) (models.AcceleratorInfo, error) {
	bin, err := n.lookPath(n.path)
	if err != nil {
		return models.AcceleratorInfo{}, fmt.Errorf("%w: %s not found", ErrAcceleratorUnavailable, n.path)
	}

	out, err := n.run(ctx, bin,
		"--query-gpu=index,name,memory.total,driver_version",
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		return models.AcceleratorInfo{}, fmt.Errorf("%w: %v", ErrAcceleratorUnavailable, err)
	}

	devices, driver, err := parseDeviceCSV(out)
	if err != nil {
		return models.AcceleratorInfo{}, fmt.Errorf("parse nvidia-smi output: %w", err)
	}
	if len(devices) == 0 {
		return models.AcceleratorInfo{}, fmt.Errorf("%w: no devices reported", ErrAcceleratorUnavailable)
	}

	info := models.AcceleratorInfo{
		Available:     true,
		Vendor:        "nvidia",
		DriverVersion: driver,
		Devices:       devices,
	}

	// The CUDA version only appears in the default banner output.
	if banner, err := n.run(ctx, bin); err == nil {
		if m := cudaVersionPattern.FindSubmatch(banner); m != nil {
			info.CUDAVersion = string(m[1])
		}
	}

	return info, nil
}

func parseDeviceCSV(out []byte) ([]models.AcceleratorDevice, string, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, "", err
	}

	var (
		devices []models.AcceleratorDevice
		driver  string
	)
	for _, rec := range records {
		index, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, "", fmt.Errorf("device index %q: %w", rec[0], err)
		}
		memory, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("device memory %q: %w", rec[2], err)
		}
		devices = append(devices, models.AcceleratorDevice{
			Index:     index,
			Name:      strings.TrimSpace(rec[1]),
			MemoryMiB: memory,
		})
		driver = strings.TrimSpace(rec[3])
	}
	return devices, driver, nil
}

// MemoryGB converts a device's reported memory to decimal gigabytes.
func MemoryGB(d models.AcceleratorDevice) float64 {
	return float64(d.MemoryMiB) * 1024 * 1024 / 1e9
}
