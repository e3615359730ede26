package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// TempPath returns a unique hidden path inside dir
func TempPath(dir string) string {
	return filepath.Join(dir, ".tmp-"+uuid.NewString())
}

// CreateTemp creates a unique temp file inside dir, creating dir if needed.
// The temp file must live on the same filesystem as its final path so that
// Commit is a rename.
func CreateTemp(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return os.OpenFile(TempPath(dir), os.O_RDWR|os.O_CREATE|os.O_EXCL, filePerm)
}

// Commit syncs and closes f, then renames it to path. On failure the temp
// file is removed.
func Commit(f *os.File, path string) error {
	tmp := f.Name()
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return syncDir(filepath.Dir(path))
}

// Discard closes and removes a temp file
func Discard(f *os.File) error {
	_ = f.Close()
	if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteFile atomically replaces path with data: readers see either the old
// content or the new one, never a partial write.
func WriteFile(tmpDir, path string, data []byte) error {
	f, err := CreateTemp(tmpDir)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = Discard(f)
		return err
	}
	return Commit(f, path)
}

// RemoveEmptyDirs removes dir and its parents up to, but not including, stop
// as long as they are empty
func RemoveEmptyDirs(dir, stop string) {
	stop = filepath.Clean(stop)
	for dir = filepath.Clean(dir); dir != stop && len(dir) > len(stop); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// some filesystems reject fsync on directories
	_ = d.Sync()
	return nil
}
