package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Trainer
	EpochDuration    time.Duration
	DataLoadDuration time.Duration
	StatusAddr       string

	// Probe
	ProbeOutputDir  string
	ProbeDisableGPU bool
	NvidiaSMIPath   string
	MatrixSize      int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Kafka
	KafkaBrokers        []string
	KafkaTopic          string
	KafkaPublishTimeout time.Duration
}

func Load() *Config {
	return &Config{
		EpochDuration:    getDuration("TRAINER_EPOCH_DURATION", 2*time.Second),
		DataLoadDuration: getDuration("TRAINER_DATA_LOAD_DURATION", time.Second),
		StatusAddr:       getEnv("TRAINER_STATUS_ADDR", ""),

		ProbeOutputDir:  getEnv("PROBE_OUTPUT_DIR", "/output"),
		ProbeDisableGPU: getBoolEnv("PROBE_DISABLE_GPU", false),
		NvidiaSMIPath:   getEnv("NVIDIA_SMI_PATH", "nvidia-smi"),
		MatrixSize:      getIntEnv("PROBE_MATRIX_SIZE", 1000),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "euler"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "euler"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisTTL:      getDuration("REDIS_METRICS_TTL", 24*time.Hour),

		KafkaBrokers:        getStringSliceEnv("KAFKA_BROKERS", nil),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "euler.diagnostics"),
		KafkaPublishTimeout: getDuration("KAFKA_PUBLISH_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
