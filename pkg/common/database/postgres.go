package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotConfigured = errors.New("database not configured")

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// GetPostgres opens the shared connection on first use. It returns
// ErrNotConfigured when POSTGRES_HOST is unset.
func GetPostgres(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PostgresHost == "" {
		return nil, ErrNotConfigured
	}
	dbOnce.Do(func() {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.PostgresHost,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresPort,
			cfg.PostgresSSLMode,
		)

		db, dbErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if dbErr != nil {
			logger.Log.WithError(dbErr).Warn("Failed to connect to PostgreSQL")
			return
		}

		logger.Log.Info("Connected to PostgreSQL")
	})

	return db, dbErr
}

func ClosePostgres() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
