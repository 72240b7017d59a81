package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mischief/pkg/core"
)

// SystemDir marks a deployment root that has no config file.
const SystemDir = ".mischief"

// FindRoot walks from startDir towards the filesystem root and returns the
// first directory holding mischief.yaml or a .mischief directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		if isRoot(dir) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no %s or %s above %s: %w", ConfigFile, SystemDir, startDir, core.ErrNotFound)
}

// FindConfig returns the config file of the root above startDir. A root marked
// only by SystemDir yields the path the config file would have; LoadConfig
// treats it as absent and falls back to defaults.
func FindConfig(startDir string) (string, error) {
	root, err := FindRoot(startDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ConfigFile), nil
}

func isRoot(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil && !info.IsDir() {
		return true
	}
	info, err := os.Stat(filepath.Join(dir, SystemDir))
	return err == nil && info.IsDir()
}
