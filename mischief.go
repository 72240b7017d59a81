package mischief

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/mischief/internal/platform"
	"github.com/aretw0/mischief/pkg/core"
)

// --- Types ---

// Service is the note store use-case layer.
type Service = core.Service

// Principal is an actor with a name and a secret credential.
type Principal = core.Principal

// Config is the YAML deployment configuration.
type Config = platform.Config

// Components are the stores opened for one data directory.
type Components = platform.Components

// --- Configuration ---

// Option defines a functional option for configuring the note store.
type Option = platform.Option

// WithLogger sets the logger for the service and its stores.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdministrator names the principal allowed to run admin-only operations.
func WithAdministrator(name string) Option {
	return platform.WithAdministrator(name)
}

// WithPrincipals replaces the principals seeded on first start.
func WithPrincipals(principals []Principal) Option {
	return platform.WithPrincipals(principals)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithKeyFile overrides the key file location.
func WithKeyFile(path string) Option {
	return platform.WithKeyFile(path)
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithWatcherErrorHandler registers a callback for filesystem watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a Service for the data directory, creating it on first use.
func New(dataDir string, opts ...Option) (*Service, error) {
	return platform.New(dataDir, opts...)
}

// Open creates the Service together with its stores.
func Open(ctx context.Context, dataDir string, opts ...Option) (*Components, error) {
	return platform.Open(ctx, dataDir, opts...)
}

// --- Config & Utils ---

// LoadConfig reads a YAML configuration file; a missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// FindConfig returns the config file path of the deployment root above startDir.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}

// FindRoot recursively looks upwards for a deployment root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
