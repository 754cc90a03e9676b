package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckoutOptions controls how Materialise reconciles the working tree with
// a target tree.
type CheckoutOptions struct {
	// Force allows overwriting files that differ from both the old and new
	// tree (i.e. local modifications), instead of refusing with ErrDirty.
	Force bool
}

// Materialise writes every blob reachable from targetTree into workDir,
// replacing the current stage-0 index contents, and removes any tracked
// file that target no longer lists. Unless Force is set, it checks every
// target path before writing anything: a file on disk that is not in
// oldIndex and whose content differs from the target blob fails with
// ErrWouldOverwriteUntracked, and a tracked file whose content matches
// neither oldIndex nor the target fails with ErrDirty. Only the first
// offending path is reported. Every file is written with permission 0644
// and staged with mode 0100644; the tree's executable bit is not applied.
func (r *Repository) Materialise(targetTree Hash, oldIndex *Index, opts CheckoutOptions) (*Index, error) {
	targetFiles, err := flattenTree(r, targetTree, "")
	if err != nil {
		return nil, fmt.Errorf("materialise: %w", err)
	}

	oldFiles := make(map[string]Hash)
	if oldIndex != nil {
		for _, e := range oldIndex.Entries {
			if e.Stage == 0 {
				oldFiles[e.Path] = e.Hash
			}
		}
	}

	if !opts.Force {
		for path, targetHash := range targetFiles {
			abs := filepath.Join(r.workDir, path)
			onDisk, err := os.ReadFile(abs) //nolint:gosec // G304: path comes from the repository's own tree
			if err != nil {
				continue // not present on disk, nothing to clobber
			}
			oldHash, tracked := oldFiles[path]
			diskHash := HashObject(BlobObject, onDisk)
			if !tracked && diskHash != targetHash {
				return nil, NewError(ErrWouldOverwriteUntracked, "checkout",
					fmt.Errorf("untracked file would be overwritten: %s", path))
			}
			if tracked && diskHash != oldHash && diskHash != targetHash {
				return nil, NewError(ErrDirty, "checkout",
					fmt.Errorf("local modifications would be overwritten: %s", path))
			}
		}
	}

	newIndex := NewIndex()
	for path, hash := range targetFiles {
		content, err := r.GetBlob(hash)
		if err != nil {
			return nil, fmt.Errorf("materialise: %s: %w", path, err)
		}
		abs := filepath.Join(r.workDir, path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("materialise: %s: %w", path, err)
		}
		if err := os.WriteFile(abs, content, 0o644); err != nil {
			return nil, fmt.Errorf("materialise: %s: %w", path, err)
		}
		newIndex.Stage(path, hash, 0100644)
	}

	for path := range oldFiles {
		if _, stillPresent := targetFiles[path]; !stillPresent {
			abs := filepath.Join(r.workDir, path)
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("materialise: remove %s: %w", path, err)
			}
			removeEmptyParents(r.workDir, filepath.Dir(path))
		}
	}

	if err := WriteIndex(r.gitDir, newIndex); err != nil {
		return nil, fmt.Errorf("materialise: %w", err)
	}
	return newIndex, nil
}

// removeEmptyParents removes dir and any now-empty ancestor directories up
// to (not including) root, mirroring how a working tree loses empty
// directories once their last tracked file is removed.
func removeEmptyParents(root, dir string) {
	for dir != "." && dir != string(filepath.Separator) {
		abs := filepath.Join(root, dir)
		entries, err := os.ReadDir(abs)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(abs); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
