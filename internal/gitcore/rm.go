package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// RemovePaths unstages each tracked path and deletes it from the working
// tree. A path not present in the index at stage 0 fails with ErrNotFound.
func (r *Repository) RemovePaths(paths []string) ([]string, error) {
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("rm: %w", err)
	}

	for _, p := range paths {
		if _, tracked := idx.ByPath[p]; !tracked {
			return nil, NewError(ErrNotFound, "rm", fmt.Errorf("pathspec %q did not match any tracked files", p))
		}
	}

	removed := make([]string, 0, len(paths))
	for _, p := range paths {
		idx.Unstage(p)
		abs := filepath.Join(r.workDir, p)
		if rmErr := os.Remove(abs); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("rm: %s: %w", p, rmErr)
		}
		removed = append(removed, p)
	}

	if err := WriteIndex(r.gitDir, idx); err != nil {
		return nil, fmt.Errorf("rm: %w", err)
	}
	return removed, nil
}
