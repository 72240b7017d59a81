package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/mischief/pkg/adapters/fs"
	"github.com/aretw0/mischief/pkg/adapters/sealer"
	"github.com/aretw0/mischief/pkg/core"
)

// BlobDir is the directory holding content blobs, relative to the data directory.
const BlobDir = "blobs"

// Components are the stores built for one data directory, exposed for
// commands that need more than the Service (watch, state).
type Components struct {
	Service *core.Service
	Meta    *fs.MetaStore
	Content *fs.ContentStore
	Sealer  *sealer.Sealer
}

// Open builds and initializes every store under dataDir and wires them into a Service.
//
// Example:
//
//	c, err := platform.Open("./data", platform.WithLogger(logger))
func Open(ctx context.Context, dataDir string, opts ...Option) (*Components, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	path, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	admin, err := core.NormalizeName(o.administrator)
	if err != nil {
		return nil, fmt.Errorf("invalid administrator: %w", err)
	}

	principals := make([]core.Principal, 0, len(o.principals))
	for _, p := range o.principals {
		name, err := core.NormalizeName(p.Name)
		if err != nil {
			return nil, err
		}
		principals = append(principals, core.Principal{Name: name, Credential: p.Credential})
	}

	meta := fs.NewMetaStore(fs.Config{
		Path:              path,
		MustExist:         o.mustExist,
		ReadOnly:          o.readOnly,
		Logger:            logger.With("component", "metadata_store"),
		DefaultPrincipals: principals,
		ErrorHandler:      o.errorHandler,
	})
	if err := meta.Initialize(ctx); err != nil {
		return nil, err
	}

	content := fs.NewContentStore(fs.ContentConfig{
		Path:     filepath.Join(path, BlobDir),
		ReadOnly: o.readOnly,
		Logger:   logger.With("component", "content_store"),
	})
	if err := content.Initialize(ctx); err != nil {
		return nil, err
	}

	keyFile := o.keyFile
	if keyFile == "" {
		keyFile = filepath.Join(path, sealer.DefaultKeyFile)
	}
	var key []byte
	if o.readOnly {
		key, err = sealer.LoadKey(keyFile)
	} else {
		key, err = sealer.LoadOrCreateKey(keyFile, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	cipher, err := sealer.New(key)
	if err != nil {
		return nil, err
	}

	svcOpts := []core.ServiceOption{
		core.WithAdministrator(admin),
		core.WithServiceLogger(logger),
	}
	if o.clock != nil {
		svcOpts = append(svcOpts, core.WithClock(o.clock))
	}
	service := core.NewService(meta, content, cipher, svcOpts...)

	if p, err := meta.Principals(ctx); err == nil {
		if _, ok := p.Lookup(admin); !ok {
			logger.Warn("administrator is not a registered principal", "administrator", admin)
		}
	}

	logger.Debug("note store opened", "path", path, "read_only", o.readOnly)
	return &Components{Service: service, Meta: meta, Content: content, Sealer: cipher}, nil
}

// New creates a Service for the data directory.
func New(dataDir string, opts ...Option) (*core.Service, error) {
	c, err := Open(context.Background(), dataDir, opts...)
	if err != nil {
		return nil, err
	}
	return c.Service, nil
}
