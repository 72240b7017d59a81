package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/mischief/pkg/core"
)

// options holds the internal configuration for the note store.
type options struct {
	logger        *slog.Logger
	administrator string
	principals    []core.Principal
	readOnly      bool
	mustExist     bool
	keyFile       string
	clock         func() time.Time
	errorHandler  func(error)
}

// Option defines a functional option for configuring the note store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		administrator: core.DefaultAdministrator,
		principals:    DefaultPrincipals(),
	}
}

// WithLogger sets the logger for the service and its stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdministrator names the principal allowed to run admin-only operations.
func WithAdministrator(name string) Option {
	return func(o *options) {
		o.administrator = name
	}
}

// WithPrincipals replaces the principals seeded on first start.
// They are ignored once the principals document exists.
func WithPrincipals(principals []core.Principal) Option {
	return func(o *options) {
		o.principals = principals
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return ErrReadOnly.
// 2. Initialization (mkdir, seeding, temp sweep) is skipped.
// 3. The key file must already exist.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithKeyFile overrides the key file location. Defaults to .key in the data directory.
func WithKeyFile(path string) Option {
	return func(o *options) {
		o.keyFile = path
	}
}

// WithClock overrides the time source used for created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by the
// filesystem watcher, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
