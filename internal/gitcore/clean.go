package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CleanPlan lists the untracked paths a clean would remove.
type CleanPlan struct {
	Paths []string
}

// PlanClean walks the working tree and collects every untracked file not
// excluded by .gitignore. When includeDirs is set, a directory with no
// tracked file anywhere in its subtree is folded into a single path entry
// instead of listing its files individually.
func (r *Repository) PlanClean(includeDirs bool) (*CleanPlan, error) {
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	tracked := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		tracked[e.Path] = true
	}

	matcher := loadIgnoreMatcher(r.workDir, r.gitDir)

	paths, _, err := walkUntracked(r, tracked, matcher, ".", includeDirs, true)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}

	sort.Strings(paths)
	return &CleanPlan{Paths: paths}, nil
}

// walkUntracked recurses through dir, returning the untracked paths found
// and whether dir's subtree contains any tracked file. When collapse is
// set, an entirely-untracked subdirectory is reported as one path rather
// than its individual files; isRoot suppresses collapsing the working
// directory itself into a single entry.
func walkUntracked(r *Repository, tracked map[string]bool, matcher *ignoreMatcher, dir string, collapse, isRoot bool) (paths []string, hasTracked bool, err error) {
	entries, err := os.ReadDir(filepath.Join(r.workDir, dir))
	if err != nil {
		return nil, false, err
	}

	var pending []string
	for _, entry := range entries {
		rel := filepath.ToSlash(filepath.Join(dir, entry.Name()))
		if entry.Name() == ".pygit" {
			continue
		}

		if entry.IsDir() {
			if matcher.isIgnored(rel, true) {
				continue
			}
			childPaths, childHasTracked, err := walkUntracked(r, tracked, matcher, rel, collapse, false)
			if err != nil {
				return nil, false, err
			}
			if childHasTracked {
				hasTracked = true
				pending = append(pending, childPaths...)
			} else if collapse {
				pending = append(pending, rel)
			} else {
				pending = append(pending, childPaths...)
			}
			continue
		}

		if tracked[rel] {
			hasTracked = true
			continue
		}
		if matcher.isIgnored(rel, false) {
			continue
		}
		pending = append(pending, rel)
	}

	if hasTracked || isRoot || !collapse {
		paths = append(paths, pending...)
	}
	return paths, hasTracked, nil
}

// Clean removes every path in plan from the working tree.
func (r *Repository) Clean(plan *CleanPlan) error {
	for _, p := range plan.Paths {
		abs := filepath.Join(r.workDir, p)
		info, err := os.Lstat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("clean: %s: %w", p, err)
		}
		if info.IsDir() {
			if err := os.RemoveAll(abs); err != nil {
				return fmt.Errorf("clean: %s: %w", p, err)
			}
			continue
		}
		if err := os.Remove(abs); err != nil {
			return fmt.Errorf("clean: %s: %w", p, err)
		}
	}
	return nil
}
