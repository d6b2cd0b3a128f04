package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Backend.Get when nothing is stored under a key.
var ErrNotFound = errors.New("persistence: key not found")

// Backend stores opaque blobs under string keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// Driver names a Backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

// Config selects and configures a Backend.
type Config struct {
	Driver      Driver
	FileDir     string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
	Compress    bool
}

// Open constructs the Backend named by cfg.Driver. An empty driver means SQLite.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	driver := Driver(strings.ToLower(string(cfg.Driver)))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.FileDir)
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("persistence: unknown storage driver %q", cfg.Driver)
	}
}
