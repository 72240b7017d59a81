package fs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// sweepTempFiles removes temp files left in dir by writes that never reached
// their rename, e.g. after a crash. It must run while no write is in flight.
func sweepTempFiles(dir string) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), TempFilePrefix+"*")
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, name := range matches {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
