package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock is an advisory exclusive lock on a repository's index, modeled on
// index.lock: a sentinel file created with O_CREATE|O_EXCL so that two
// concurrent writers can never both believe they hold the lock.
type Lock struct {
	path string
	held bool
}

// acquireLock creates path exclusively. If the file already exists, it
// returns an *Error with ErrLocked unless force is set, in which case the
// stale lock file is removed and acquisition is retried once.
func acquireLock(path string, force bool) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !force {
			return nil, NewError(ErrLocked, "acquire lock", fmt.Errorf("lock file exists: %s", path))
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, fmt.Errorf("acquire lock: remove stale lock: %w", rmErr)
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
	}
	if cerr := f.Close(); cerr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("acquire lock: %w", cerr)
	}
	return &Lock{path: path, held: true}, nil
}

// LockIndex acquires the index.lock for the repository's gitDir.
func (r *Repository) LockIndex(force bool) (*Lock, error) {
	return acquireLock(filepath.Join(r.gitDir, "index.lock"), force)
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// atomicWriteFile writes data to a temp file in filepath.Dir(path) and
// renames it into place, so readers never observe a partially written file
// and a crash mid-write never corrupts the previous contents.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	return nil
}
