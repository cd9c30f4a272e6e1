package config

import (
	"os"
	"strconv"
	"time"

	"turnstile/internal/database"
	"turnstile/internal/jobs"
	"turnstile/internal/lock"
	"turnstile/internal/messaging"
	"turnstile/internal/service"
	"turnstile/internal/worker"
)

// Config holds the full application configuration
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	Database   database.Config
	Redis      lock.Config
	NATS       messaging.Config
	Admission  service.AdmissionConfig
	Worker     worker.Config
	Reconciler jobs.Config

	// Simulated artifact-generation time per booking
	FinalizeWork time.Duration
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "turnstile"),
			Password:           getEnv("DB_PASSWORD", "turnstile123"),
			DBName:             getEnv("DB_NAME", "turnstile"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: lock.Config{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			WaitTimeout:   getEnvDuration("LOCK_WAIT_MS", 500*time.Millisecond),
			RetryInterval: getEnvDuration("LOCK_RETRY_MS", 20*time.Millisecond),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "turnstile"),
			ClientID:  getEnv("NATS_CLIENT_ID", "turnstile"),
			AckWait:   getEnvDuration("NATS_ACK_WAIT_MS", 30000*time.Millisecond),
		},

		Admission: service.AdmissionConfig{
			LockLease: getEnvDuration("LOCK_LEASE_MS", 5000*time.Millisecond),
		},

		Worker: worker.Config{
			Workers:     getEnvInt("WORKER_COUNT", 4),
			MaxAttempts: getEnvInt("WORKER_MAX_ATTEMPTS", 3),
			BaseBackoff: getEnvDuration("WORKER_BASE_BACKOFF_MS", 500*time.Millisecond),
		},

		Reconciler: jobs.Config{
			Interval:    getEnvDuration("RECONCILE_INTERVAL_MS", 60000*time.Millisecond),
			GracePeriod: getEnvDuration("RECONCILE_GRACE_MS", 300000*time.Millisecond),
		},

		FinalizeWork: getEnvDuration("FINALIZE_WORK_MS", 100*time.Millisecond),
	}
}

// getEnv returns the environment variable value or the default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or the default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration reads a millisecond-valued environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
