package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/database"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/kafka"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/probe"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/storage"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/training"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger.Init()
	cfg := config.Load()

	runCfg, err := training.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake-trainer: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	integrations := connectIntegrations(cfg)
	defer integrations.close()

	var accel probe.Accelerator = probe.NewNvidiaSMI(cfg.NvidiaSMIPath)
	if cfg.ProbeDisableGPU {
		accel = probe.None{}
	}

	trainer := training.NewTrainer(runCfg, training.Options{
		EpochDuration:    cfg.EpochDuration,
		DataLoadDuration: cfg.DataLoadDuration,
		Accelerator:      accel,
		Reporters:        integrations.reporters,
		Output:           os.Stdout,
	})

	if cfg.StatusAddr != "" {
		status := training.StartStatusServer(cfg.StatusAddr, trainer.RunID(), integrations.sources)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := status.Shutdown(shutdownCtx); err != nil {
				logger.Log.WithError(err).Warn("Status endpoint forced to shutdown")
			}
		}()
	}

	summary, err := trainer.Run(ctx)
	if training.IsInterrupted(err) {
		logger.Log.Warn("Training interrupted")
		return 130
	}
	if err != nil {
		logger.Log.WithError(err).Error("Training failed")
		return 1
	}

	logger.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"best_loss": summary.BestLoss,
	}).Info("Training completed")
	return 0
}

type integrations struct {
	reporters []training.Reporter
	sources   training.StatusSources
	closers   []func() error
}

// connectIntegrations wires every integration configured through the
// environment. Integrations that cannot connect are skipped with a warning.
func connectIntegrations(cfg *config.Config) *integrations {
	in := &integrations{reporters: []training.Reporter{training.MetricsReporter{}}}

	if client, err := database.GetRedis(cfg); err == nil {
		cache := storage.NewMetricsCache(client, cfg.RedisTTL)
		in.reporters = append(in.reporters, training.CacheReporter{Cache: cache})
		in.sources.Epochs = cache
		in.closers = append(in.closers, database.CloseRedis)
	} else if !errors.Is(err, database.ErrNotConfigured) {
		logger.Log.WithError(err).Warn("Redis metrics cache disabled")
	}

	if producer := kafka.NewProducer(cfg); producer != nil {
		in.reporters = append(in.reporters, training.EventReporter{Producer: producer})
		in.closers = append(in.closers, producer.Close)
	}

	if db, err := database.GetPostgres(cfg); err == nil {
		repo := training.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Warn("Run registry disabled")
		} else {
			in.reporters = append(in.reporters, training.RegistryReporter{Repo: repo})
			in.sources.Runs = repo
		}
		in.closers = append(in.closers, database.ClosePostgres)
	} else if !errors.Is(err, database.ErrNotConfigured) {
		logger.Log.WithError(err).Warn("Run registry disabled")
	}

	return in
}

func (in *integrations) close() {
	for _, closeFn := range in.closers {
		if err := closeFn(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close integration")
		}
	}
}
