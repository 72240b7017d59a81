package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/aretw0/mischief/pkg/core"
)

const (
	// BlobExt is the extension of content blob files.
	BlobExt = ".blob"

	blobVersion = 1
)

// blobEnvelope is the on-disk record of a content blob. The ID is repeated
// inside the file so a blob moved or copied under another name is detected.
type blobEnvelope struct {
	Version    int    `cbor:"v"`
	ID         string `cbor:"id"`
	Ciphertext []byte `cbor:"ct"`
}

// ContentConfig holds the configuration for the filesystem content store.
type ContentConfig struct {
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// ContentStore implements core.ContentRepository with one file per note under
// Path. Blobs are written once per note, so concurrent writers to the same ID
// are not guarded beyond the atomic rename.
type ContentStore struct {
	Path   string
	config ContentConfig

	puts    atomic.Int64
	deletes atomic.Int64
}

// NewContentStore creates a new filesystem-backed content store.
func NewContentStore(config ContentConfig) *ContentStore {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ContentStore{Path: config.Path, config: config}
}

// Initialize creates the blob directory and removes leftover temp files.
func (c *ContentStore) Initialize(ctx context.Context) error {
	if c.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(c.Path, 0o700); err != nil {
		return &core.StorageError{Op: "mkdir", Path: c.Path, Err: err}
	}
	if n, err := sweepTempFiles(c.Path); err != nil {
		c.config.Logger.Warn("failed to sweep temp files", "path", c.Path, "error", err)
	} else if n > 0 {
		c.config.Logger.Info("removed leftover temp files", "count", n)
	}
	return nil
}

func (c *ContentStore) blobPath(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("note id %q: %w", id, core.ErrInvalidArgument)
	}
	return filepath.Join(c.Path, id+BlobExt), nil
}

// Put stores the ciphertext for id.
func (c *ContentStore) Put(ctx context.Context, id string, ciphertext []byte) error {
	if c.config.ReadOnly {
		return core.ErrReadOnly
	}
	path, err := c.blobPath(id)
	if err != nil {
		return err
	}

	data, err := cbor.Marshal(blobEnvelope{Version: blobVersion, ID: id, Ciphertext: ciphertext})
	if err != nil {
		return &core.StorageError{Op: "encode", Path: path, Err: err}
	}
	if err := writeFileAtomic(ctx, path, data, 0o600); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &core.StorageError{Op: "write", Path: path, Err: err}
	}

	c.puts.Add(1)
	c.config.Logger.Debug("blob written", "note", id, "bytes", len(ciphertext))
	return nil
}

// Get returns the ciphertext for id.
func (c *ContentStore) Get(ctx context.Context, id string) ([]byte, error) {
	path, err := c.blobPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("content of note %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StorageError{Op: "read", Path: path, Err: err}
	}

	var env blobEnvelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("corrupt blob for note %s: %w", id, core.ErrDecryption)
	}
	if env.Version != blobVersion || env.ID != id {
		return nil, fmt.Errorf("blob for note %s belongs to %q (v%d): %w", id, env.ID, env.Version, core.ErrDecryption)
	}
	return env.Ciphertext, nil
}

// Exists reports whether a blob is stored for id.
func (c *ContentStore) Exists(ctx context.Context, id string) (bool, error) {
	path, err := c.blobPath(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &core.StorageError{Op: "stat", Path: path, Err: err}
	}
	return true, nil
}

// Delete removes the blob for id. Missing blobs are a no-op.
func (c *ContentStore) Delete(ctx context.Context, id string) error {
	if c.config.ReadOnly {
		return core.ErrReadOnly
	}
	path, err := c.blobPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &core.StorageError{Op: "remove", Path: path, Err: err}
	}
	c.deletes.Add(1)
	c.config.Logger.Debug("blob removed", "note", id)
	return nil
}

// List returns the IDs of every stored blob, sorted.
func (c *ContentStore) List(ctx context.Context) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(c.Path), "*"+BlobExt)
	if err != nil {
		return nil, &core.StorageError{Op: "list", Path: c.Path, Err: err}
	}

	ids := make([]string, 0, len(matches))
	for _, name := range matches {
		id := strings.TrimSuffix(name, BlobExt)
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ core.ContentRepository = (*ContentStore)(nil)
