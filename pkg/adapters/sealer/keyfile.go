package sealer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/mischief/pkg/core"
)

// DefaultKeyFile is the key file name inside the data directory.
const DefaultKeyFile = ".key"

// KeyTempPrefix names the staging files of a key being created.
const KeyTempPrefix = ".key-tmp-"

// staleKeyTempAge is how old a staging file must be before it is treated as
// the leftover of a crashed creator rather than one still in progress.
const staleKeyTempAge = time.Minute

// LoadOrCreateKey reads the hex-encoded key at path. If the file does not
// exist a new random key is written with owner-only permissions. When two
// processes race to create the key, the loser adopts the winner's file.
func LoadOrCreateKey(path string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if n, err := sweepKeyTemps(filepath.Dir(path), time.Now().Add(-staleKeyTempAge)); err != nil {
		logger.Warn("failed to sweep key temp files", "path", path, "error", err)
	} else if n > 0 {
		logger.Info("removed stale key temp files", "path", path, "count", n)
	}

	key, err := LoadKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if err := saveKey(path, key); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return LoadKey(path)
		}
		return nil, &core.StorageError{Op: "create key", Path: path, Err: err}
	}

	logger.Info("generated new encryption key", "path", path)
	return key, nil
}

// LoadKey reads an existing key file. A missing file is reported as fs.ErrNotExist.
func LoadKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &core.StorageError{Op: "read key", Path: path, Err: err}
	}
	return ParseKeyHex(string(data))
}

// ParseKeyHex decodes a hex key as stored in the key file.
func ParseKeyHex(keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("malformed key file: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("expected key length of %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// saveKey publishes the key with a hard link from a fully written temp file,
// so readers never see a partial key and an existing file is never replaced.
func saveKey(path string, key []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, KeyTempPrefix+"*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Link(tmp.Name(), path)
}

// sweepKeyTemps removes staging files in dir last modified before cutoff.
func sweepKeyTemps(dir string, cutoff time.Time) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), KeyTempPrefix+"*")
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, name := range matches {
		full := filepath.Join(dir, name)
		info, err := os.Lstat(full)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
