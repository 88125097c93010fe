package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrOutputIsDir is returned when the output path names a directory.
var ErrOutputIsDir = errors.New("output path is a directory")

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial file. The temporary
// file is removed on failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	info, statErr := os.Stat(path)
	if statErr == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputIsDir, path)
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	err = os.Chmod(tmpName, perm)
	if err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}

	return nil
}
