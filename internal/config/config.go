// Package config reads the pantry configuration from the environment.
//
// An optional .env file in the working directory is loaded first; variables
// already set in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/persistence"
)

// Config is everything cmd/server and cmd/pantryctl need to start.
type Config struct {
	Port     int
	LogLevel slog.Level

	Storage persistence.Config

	PageSize     int
	FetchLatency time.Duration

	// JWTSecret enables auth on mutating routes when non-empty.
	JWTSecret string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Port:     8080,
		LogLevel: slog.LevelInfo,
		Storage: persistence.Config{
			Driver:     persistence.DriverSQLite,
			FileDir:    "data",
			SQLitePath: "data/pantry.db",
		},
		PageSize:     inventory.DefaultPageSize,
		FetchLatency: inventory.DefaultLatency,
	}
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv. Unset or empty variables keep
// their defaults. Every malformed value is reported, not just the first.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT must be a port number, got %q", v))
		} else {
			cfg.Port = port
		}
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if v := getenv("PANTRY_STORAGE_DRIVER"); v != "" {
		driver := persistence.Driver(strings.ToLower(v))
		switch driver {
		case persistence.DriverMemory, persistence.DriverFile, persistence.DriverSQLite,
			persistence.DriverPostgres, persistence.DriverS3:
			cfg.Storage.Driver = driver
		default:
			errs = append(errs, fmt.Errorf("PANTRY_STORAGE_DRIVER: unknown driver %q", v))
		}
	}
	if v := getenv("PANTRY_FILE_PATH"); v != "" {
		cfg.Storage.FileDir = v
	}
	if v := getenv("PANTRY_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	cfg.Storage.PostgresDSN = getenv("PANTRY_POSTGRES_DSN")

	cfg.Storage.S3 = persistence.S3Config{
		Bucket:          getenv("PANTRY_S3_BUCKET"),
		Region:          getenv("PANTRY_S3_REGION"),
		Endpoint:        getenv("PANTRY_S3_ENDPOINT"),
		Prefix:          getenv("PANTRY_S3_PREFIX"),
		AccessKeyID:     getenv("PANTRY_S3_ACCESS_KEY_ID"),
		SecretAccessKey: getenv("PANTRY_S3_SECRET_ACCESS_KEY"),
	}
	if v := getenv("PANTRY_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PANTRY_S3_PATH_STYLE must be a boolean, got %q", v))
		}
		cfg.Storage.S3.PathStyle = b
	}

	if v := getenv("PANTRY_COMPRESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PANTRY_COMPRESS must be a boolean, got %q", v))
		}
		cfg.Storage.Compress = b
	}

	if v := getenv("PANTRY_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("PANTRY_PAGE_SIZE must be a positive integer, got %q", v))
		} else {
			cfg.PageSize = n
		}
	}

	if v := getenv("PANTRY_FETCH_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("PANTRY_FETCH_LATENCY must be a non-negative duration, got %q", v))
		} else {
			cfg.FetchLatency = d
		}
	}

	cfg.JWTSecret = getenv("PANTRY_JWT_SECRET")

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case persistence.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("PANTRY_POSTGRES_DSN is required for the postgres driver")
		}
	case persistence.DriverS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("PANTRY_S3_BUCKET is required for the s3 driver")
		}
	}
	return nil
}
