//go:build !unix && !windows

package fs

import "os"

// Platforms without file locking only get the in-process critical section.
func tryLockFile(f *os.File) (bool, error) { return true, nil }

func unlockFile(f *os.File) error { return nil }
