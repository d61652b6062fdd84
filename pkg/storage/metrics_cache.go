package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MetricsCache keeps the most recent diagnostics in Redis so dashboards can
// read a run's progress without touching the cluster filesystem.
type MetricsCache struct {
	client   redis.Cmdable
	cacheTTL time.Duration
}

func NewMetricsCache(client redis.Cmdable, ttl time.Duration) *MetricsCache {
	return &MetricsCache{client: client, cacheTTL: ttl}
}

func latestKey(runID string) string  { return fmt.Sprintf("training:%s:latest", runID) }
func historyKey(runID string) string { return fmt.Sprintf("training:%s:history", runID) }
func summaryKey(runID string) string { return fmt.Sprintf("training:%s:summary", runID) }
func probeKey(host string) string    { return fmt.Sprintf("probe:%s:latest", host) }

func (c *MetricsCache) StoreEpoch(ctx context.Context, runID string, metric models.EpochMetric) error {
	data, err := json.Marshal(metric)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"key":   latestKey(runID),
		"epoch": metric.Epoch,
	}).Debug("Caching epoch metric")

	if err := c.client.Set(ctx, latestKey(runID), data, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("cache latest epoch: %w", err)
	}
	if err := c.client.RPush(ctx, historyKey(runID), data).Err(); err != nil {
		return fmt.Errorf("append epoch history: %w", err)
	}
	return c.client.Expire(ctx, historyKey(runID), c.cacheTTL).Err()
}

func (c *MetricsCache) StoreSummary(ctx context.Context, summary models.ResultsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.RunID), data, c.cacheTTL).Err()
}

func (c *MetricsCache) StoreProbe(ctx context.Context, report models.ProbeReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, probeKey(report.Host.Hostname), data, c.cacheTTL).Err()
}

func (c *MetricsCache) LatestEpoch(ctx context.Context, runID string) (models.EpochMetric, error) {
	var metric models.EpochMetric
	data, err := c.client.Get(ctx, latestKey(runID)).Bytes()
	if err != nil {
		return metric, err
	}
	err = json.Unmarshal(data, &metric)
	return metric, err
}
