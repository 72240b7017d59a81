package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/aretw0/mischief/pkg/core"
)

// LockFile extends the critical section to every process that opens the same
// data directory: a running server and a CLI command serialize on it.
const LockFile = ".mischief.lock"

const lockRetryInterval = 5 * time.Millisecond

// lockDir takes the cross-process lock of the data directory, retrying until
// ctx is done. The lock is released by the kernel if the holder dies, so a
// crash never leaves the directory locked.
func (s *MetaStore) lockDir(ctx context.Context) (func(), error) {
	path := s.docPath(LockFile)

	flag := os.O_RDWR | os.O_CREATE
	if s.config.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if err != nil {
		if s.config.ReadOnly && errors.Is(err, fs.ErrNotExist) {
			// No writer has ever opened this directory.
			return func() {}, nil
		}
		return nil, &core.StorageError{Op: "lock", Path: path, Err: err}
	}

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, &core.StorageError{Op: "lock", Path: path, Err: err}
		}
		if locked {
			return func() {
				_ = unlockFile(f)
				_ = f.Close()
			}, nil
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
