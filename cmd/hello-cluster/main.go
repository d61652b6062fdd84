package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/database"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/kafka"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/probe"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger.Init()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var accel probe.Accelerator = probe.NewNvidiaSMI(cfg.NvidiaSMIPath)
	if cfg.ProbeDisableGPU {
		accel = probe.None{}
	}

	var sinks []probe.Sink
	if client, err := database.GetRedis(cfg); err == nil {
		sinks = append(sinks, probe.CacheSink{Cache: storage.NewMetricsCache(client, cfg.RedisTTL)})
		defer database.CloseRedis()
	} else if !errors.Is(err, database.ErrNotConfigured) {
		logger.Log.WithError(err).Warn("Redis report cache disabled")
	}
	if producer := kafka.NewProducer(cfg); producer != nil {
		sinks = append(sinks, probe.EventSink{Producer: producer})
		defer producer.Close()
	}

	p := probe.New(probe.Options{
		Accelerator: accel,
		OutputDir:   cfg.ProbeOutputDir,
		MatrixSize:  cfg.MatrixSize,
		Sinks:       sinks,
		Output:      os.Stdout,
	})

	if _, err := p.Run(ctx); err != nil {
		logger.Log.WithError(err).Error("Cluster probe failed")
		return 1
	}
	return 0
}
