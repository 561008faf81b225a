package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/vellum/pkg/adapters/fs"
)

// FindRoot walks upwards from startDir looking for a store root, marked by
// its system directory (.vellum). It returns the absolute path of the first
// match.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, fs.DefaultSystemDir)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s directory found above %s", fs.DefaultSystemDir, abs)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
