package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TempFilePrefix names the staging files of writeFileAtomic. Leftovers from a
// crash are removed by sweepTempFiles.
const TempFilePrefix = ".mischief-tmp-"

// writeFileAtomic stages data in a sibling temp file and renames it over
// filename. The target keeps its previous content unless the rename happens,
// and the rename is skipped once ctx is done.
func writeFileAtomic(ctx context.Context, filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmp, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	// Mode is fixed before any content lands so secrets are never readable by others.
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	committed = true

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows syncing a
// directory. Failures are ignored: the rename itself already succeeded.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
