package probe

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/console"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

const cpuDevice = "cpu"

type Options struct {
	Accelerator Accelerator
	OutputDir   string
	MatrixSize  int
	Sinks       []Sink
	Output      io.Writer
	Now         func() time.Time
}

// Probe performs a single smoke test of the execution environment.
type Probe struct {
	accel      Accelerator
	outputDir  string
	matrixSize int
	sinks      []Sink
	out        *console.Printer
	now        func() time.Time
}

func New(opts Options) *Probe {
	if opts.Accelerator == nil {
		opts.Accelerator = None{}
	}
	if opts.MatrixSize <= 0 {
		opts.MatrixSize = 1000
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Probe{
		accel:      opts.Accelerator,
		outputDir:  opts.OutputDir,
		matrixSize: opts.MatrixSize,
		sinks:      opts.Sinks,
		out:        console.New(opts.Output, 50),
		now:        opts.Now,
	}
}

func (p *Probe) Run(ctx context.Context) (models.ProbeReport, error) {
	report := models.ProbeReport{ID: uuid.New().String()}

	p.out.Banner("Container Test on Euler Cluster")

	report.Host = CollectHost(p.now())
	p.out.Field("Hostname", report.Host.Hostname)
	p.out.Field("Current time", report.Host.Timestamp.Format(timeLayout))
	p.out.Field("Working directory", report.Host.WorkingDir)
	p.out.Field("Executable", report.Host.Executable)
	p.out.Field("Go version", report.Host.RuntimeVer)
	p.out.Field("Platform", report.Host.OS+"/"+report.Host.Arch)
	p.out.Field("CPU", report.Host.CPUModel)
	p.out.Field("CPU cores", report.Host.NumCPU)
	p.out.Line("Memory: %.1f GB", report.Host.TotalMemoryGB)

	report.Accelerator = DetectAccelerator(ctx, p.accel)
	p.out.Blank()
	p.out.Field("CUDA available", report.Accelerator.Available)
	if report.Accelerator.Available {
		if report.Accelerator.CUDAVersion != "" {
			p.out.Field("CUDA version", report.Accelerator.CUDAVersion)
		}
		p.out.Field("Driver version", report.Accelerator.DriverVersion)
		p.out.Field("Number of GPUs", len(report.Accelerator.Devices))
		for _, d := range report.Accelerator.Devices {
			p.out.Line("GPU %d: %s (%.1f GB)", d.Index, d.Name, MemoryGB(d))
		}
	} else {
		p.out.Line("No accelerator detected, running CPU-only")
	}

	p.out.Section("Performing simple computation...")
	compute, err := p.compute()
	if err != nil {
		return report, err
	}
	report.Compute = compute
	p.out.Line("Matrix multiplication result shape: %s", compute.Shape)
	if report.Accelerator.Available {
		// There is no GPU compute backend in this binary, so the product
		// always runs on the host even when devices are present.
		p.out.Field("Computation device", compute.Device)
	} else {
		p.out.Line("Computation performed on CPU")
	}

	path, err := WriteStatusFile(p.outputDir, report, p.now())
	if err != nil {
		return report, err
	}
	report.StatusFile = path
	if path != "" {
		p.out.Blank()
		p.out.Field("Results written to", path)
	} else {
		logger.WithField("dir", p.outputDir).Debug("Output directory missing, skipping status file")
	}

	for _, sink := range p.sinks {
		if err := sink.ProbeCompleted(ctx, report); err != nil {
			logger.Log.WithError(err).Warn("Failed to publish probe report")
		}
	}

	p.out.Blank()
	p.out.Line("Test completed successfully!")
	p.out.Rule("=", 50)
	return report, nil
}

func (p *Probe) compute() (models.ComputeResult, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	x := RandomNormal(p.matrixSize, p.matrixSize, rng)

	start := time.Now()
	y, err := Multiply(x, x)
	if err != nil {
		return models.ComputeResult{}, err
	}
	return models.ComputeResult{
		Rows:     y.Rows,
		Cols:     y.Cols,
		Shape:    y.Shape(),
		Device:   cpuDevice,
		Duration: time.Since(start),
		Checksum: y.Sum(),
	}, nil
}

// DetectAccelerator never fails: an unavailable accelerator degrades to a
// CPU-only report.
func DetectAccelerator(ctx context.Context, accel Accelerator) models.AcceleratorInfo {
	info, err := accel.Detect(ctx)
	switch {
	case err == nil:
		logger.WithField("devices", len(info.Devices)).Info("Accelerator detected")
		return info
	case errors.Is(err, ErrAcceleratorUnavailable):
		logger.Log.WithError(err).Info("No accelerator available, using CPU")
	default:
		logger.Log.WithError(err).Warn("Accelerator detection failed, using CPU")
	}
	return models.AcceleratorInfo{}
}
