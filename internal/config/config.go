// Package config loads the CLI configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the CLI configuration.
type Config struct {
	App     AppConfig
	Storage StorageConfig
	Metrics MetricsConfig
	Search  SearchConfig
}

// AppConfig controls naming and logging.
type AppConfig struct {
	Name        string `validate:"required"`
	Environment string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=auto text json"`
}

// StorageConfig selects where experiments are persisted.
type StorageConfig struct {
	Backend    string `validate:"oneof=memory sqlite"`
	SQLitePath string `validate:"required_if=Backend sqlite"`
}

// MetricsConfig controls the Prometheus exposition server.
type MetricsConfig struct {
	Enabled bool
	Port    string `validate:"required,numeric"`
}

// SearchConfig holds the defaults applied to experiments whose flags are not
// given on the command line.
type SearchConfig struct {
	Runs           int     `validate:"gte=1"`
	Evals          int     `validate:"gte=1"`
	Discretisation int     `validate:"gte=2"`
	KExplore       float64 `validate:"gte=0"`
	Workers        int     `validate:"gte=1"`
	Seed           int64
}

// Load reads the environment, optionally seeded from a .env file in the
// working directory, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	runs, err := getEnvInt("NTBEA_RUNS", 10)
	if err != nil {
		return nil, err
	}

	evals, err := getEnvInt("NTBEA_EVALS", 1000)
	if err != nil {
		return nil, err
	}

	discretisation, err := getEnvInt("NTBEA_DISCRETISATION", 10)
	if err != nil {
		return nil, err
	}

	workers, err := getEnvInt("NTBEA_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	seed, err := getEnvInt("NTBEA_SEED", 1)
	if err != nil {
		return nil, err
	}

	kExplore, err := getEnvFloat("NTBEA_K_EXPLORE", 2)
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := getEnvBool("NTBEA_METRICS_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ntbea"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "auto"),
		},
		Storage: StorageConfig{
			Backend:    getEnv("NTBEA_STORE", "sqlite"),
			SQLitePath: getEnv("NTBEA_SQLITE_PATH", "ntbea.db"),
		},
		Metrics: MetricsConfig{
			Enabled: metricsEnabled,
			Port:    getEnv("NTBEA_METRICS_PORT", "9090"),
		},
		Search: SearchConfig{
			Runs:           runs,
			Evals:          evals,
			Discretisation: discretisation,
			KExplore:       kExplore,
			Workers:        workers,
			Seed:           int64(seed),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}

	return b, nil
}
