package util

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

func DirExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirs creates every missing directory in paths.
func EnsureDirs(fsys afero.Fs, paths ...string) error {
	for _, p := range paths {
		if DirExists(fsys, p) {
			continue
		}
		if err := fsys.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}
	return nil
}
