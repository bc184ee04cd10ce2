package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAppName            = "AzkiBank"
	defaultAppEnv             = "development"
	defaultPort               = "8080"
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultDBLogLevel         = "error"
	defaultDBMaxOpenConns     = 100
	defaultDBMaxIdleConns     = 10
	defaultDBConnMaxLifetime  = 30 * time.Minute
	defaultShutdownDelay      = 10 * time.Second
	defaultIdempotencyTTL     = 24 * time.Hour
	defaultWorkerPoolSize     = 10
	defaultWorkerQueueSize    = 1024
	defaultOperationHistory   = 10_000
	defaultTransactionLogPath = "transactions.log"
	defaultTransactionStream  = "bank:transactions"
	configFileEnvVar          = "CONFIG_FILE"
	idemTTLSecondsEnvVar      = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar          = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar     = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar    = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration. Values come from an
// optional YAML file named by CONFIG_FILE and are overridden by environment
// variables.
type Config struct {
	AppName   string `yaml:"app_name"`
	AppEnv    string `yaml:"app_env"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DatabaseURL       string        `yaml:"database_url"`
	DBLogLevel        string        `yaml:"db_log_level"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`

	RedisURL       string        `yaml:"redis_url"`
	ShutdownPeriod time.Duration `yaml:"shutdown_timeout"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`

	// Ledger worker pool sizing.
	WorkerPoolSize   int `yaml:"worker_pool_size"`
	WorkerQueueSize  int `yaml:"worker_queue_size"`
	OperationHistory int `yaml:"operation_history"`

	TransactionLogPath string `yaml:"transaction_log_path"`
	TransactionStream  string `yaml:"transaction_stream"`
	// MutationRateLimit is the number of mutating requests allowed per client
	// per minute. Zero disables the limiter.
	MutationRateLimit int `yaml:"mutation_rate_limit"`
}

// Load reads configuration values from the optional YAML file and the
// environment and populates a Config instance.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv(configFileEnvVar); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBLogLevel = strings.ToLower(getEnv("DB_LOG_LEVEL", cfg.DBLogLevel))
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.TransactionLogPath = getEnv("TRANSACTION_LOG_PATH", cfg.TransactionLogPath)
	cfg.TransactionStream = getEnv("TRANSACTION_STREAM", cfg.TransactionStream)

	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns},
		{"WORKER_POOL_SIZE", &cfg.WorkerPoolSize},
		{"WORKER_QUEUE_SIZE", &cfg.WorkerQueueSize},
		{"OPERATION_HISTORY", &cfg.OperationHistory},
		{"MUTATION_RATE_LIMIT", &cfg.MutationRateLimit},
	}
	for _, item := range ints {
		if *item.dst, err = getEnvInt(item.key, *item.dst); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("DB_CONN_MAX_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
		}
		cfg.DBConnMaxLifetime = d
	}
	if cfg.ShutdownPeriod, err = getEnvDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getEnvDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		AppName:            defaultAppName,
		AppEnv:             defaultAppEnv,
		Port:               defaultPort,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		DBLogLevel:         defaultDBLogLevel,
		DBMaxOpenConns:     defaultDBMaxOpenConns,
		DBMaxIdleConns:     defaultDBMaxIdleConns,
		DBConnMaxLifetime:  defaultDBConnMaxLifetime,
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdempotencyTTL,
		WorkerPoolSize:     defaultWorkerPoolSize,
		WorkerQueueSize:    defaultWorkerQueueSize,
		OperationHistory:   defaultOperationHistory,
		TransactionLogPath: defaultTransactionLogPath,
		TransactionStream:  defaultTransactionStream,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" && !c.IsDevelopment() {
		return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be positive")
	}
	if c.WorkerQueueSize <= 0 {
		return fmt.Errorf("WORKER_QUEUE_SIZE must be positive")
	}
	if c.MutationRateLimit < 0 {
		return fmt.Errorf("MUTATION_RATE_LIMIT must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the app runs in a local environment where
// in-memory stores are acceptable.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts either a whole number of seconds or a Go duration
// string, seconds taking precedence.
func getEnvDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
