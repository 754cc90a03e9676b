package gitcore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// AddPaths stages the current on-disk content of each path (file or
// directory, relative to the working directory) into the index, writing a
// blob object for every changed file along the way. Directories are walked
// recursively, skipping .pygit and any path matched by .gitignore; a path
// named explicitly is staged even if ignored, matching how `git add`
// overrides ignore rules for an exact argument.
func (r *Repository) AddPaths(paths []string) ([]string, error) {
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	matcher := loadIgnoreMatcher(r.workDir, r.gitDir)

	var files []string
	for _, p := range paths {
		abs := filepath.Join(r.workDir, p)
		info, statErr := os.Stat(abs)
		if statErr != nil {
			return nil, NewError(ErrNotFound, "add", fmt.Errorf("pathspec %q did not match any files: %w", p, statErr))
		}

		if !info.IsDir() {
			rel, relErr := filepath.Rel(r.workDir, abs)
			if relErr != nil {
				return nil, fmt.Errorf("add: %w", relErr)
			}
			files = append(files, filepath.ToSlash(rel))
			continue
		}

		walkErr := filepath.WalkDir(abs, func(walkPath string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if d.Name() == ".pygit" {
					return filepath.SkipDir
				}
				return nil
			}
			rel, relErr := filepath.Rel(r.workDir, walkPath)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if matcher.isIgnored(rel, false) {
				return nil
			}
			files = append(files, rel)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("add: %w", walkErr)
		}
	}

	sort.Strings(files)

	staged := make([]string, 0, len(files))
	for _, rel := range files {
		abs := filepath.Join(r.workDir, rel)
		info, statErr := os.Lstat(abs)
		if statErr != nil {
			return nil, NewError(ErrNotFound, "add", fmt.Errorf("pathspec %q did not match any files: %w", rel, statErr))
		}

		content, readErr := os.ReadFile(abs) //nolint:gosec // G304: path comes from the repository's own working tree
		if readErr != nil {
			return nil, fmt.Errorf("add: %s: %w", rel, readErr)
		}

		hash, writeErr := r.WriteBlob(content)
		if writeErr != nil {
			return nil, fmt.Errorf("add: %s: %w", rel, writeErr)
		}

		idx.Stage(rel, hash, fileModeFor(info))
		staged = append(staged, rel)
	}

	if err := WriteIndex(r.gitDir, idx); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return staged, nil
}
