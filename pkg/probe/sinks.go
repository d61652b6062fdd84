package probe

import (
	"context"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/kafka"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/storage"
)

// Sink receives the finished report. Sink errors are logged by the probe and
// never change its exit status.
type Sink interface {
	ProbeCompleted(ctx context.Context, report models.ProbeReport) error
}

type CacheSink struct {
	Cache *storage.MetricsCache
}

func (s CacheSink) ProbeCompleted(ctx context.Context, report models.ProbeReport) error {
	return s.Cache.StoreProbe(ctx, report)
}

type EventSink struct {
	Producer *kafka.Producer
}

func (s EventSink) ProbeCompleted(ctx context.Context, report models.ProbeReport) error {
	return s.Producer.PublishEvent(ctx, "probe.completed", "hello-cluster", map[string]interface{}{
		"report_id":   report.ID,
		"hostname":    report.Host.Hostname,
		"gpu":         report.Accelerator.Available,
		"gpu_count":   len(report.Accelerator.Devices),
		"shape":       []int{report.Compute.Rows, report.Compute.Cols},
		"device":      report.Compute.Device,
		"duration_ms": report.Compute.Duration.Milliseconds(),
	})
}
