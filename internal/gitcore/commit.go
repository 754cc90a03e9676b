package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Commit builds a tree from the current index and records it as the new
// tip of the current branch. It fails with ErrNothingToCommit unless the
// resulting tree differs from HEAD's tree or a merge is in progress
// (MERGE_HEAD present), in which case MERGE_HEAD becomes the commit's
// second parent and is cleared afterward. Commit refuses to run with HEAD
// detached, failing with ErrDirty; a branch must be checked out first.
func (r *Repository) Commit(author, committer Signature, message string) (Hash, error) {
	if r.HasUnresolvedConflicts() {
		return "", NewError(ErrMergeConflict, "commit", fmt.Errorf("unresolved conflicts remain staged"))
	}

	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	tree, err := r.WriteTreeFromIndex(idx)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	headRef := r.HeadRef()
	if headRef == "" {
		return "", NewError(ErrDirty, "commit", fmt.Errorf("HEAD is detached; create or checkout a branch first"))
	}

	var parents []Hash
	parentHash := r.Head()
	if parentHash != "" {
		parents = append(parents, parentHash)
	}

	mergeHeadPath := filepath.Join(r.gitDir, "MERGE_HEAD")
	mergeHead, mergeInProgress := readMergeHead(mergeHeadPath)
	if mergeInProgress {
		parents = append(parents, mergeHead)
	}

	if !mergeInProgress && parentHash != "" {
		parent, err := r.GetCommit(parentHash)
		if err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		if parent.Tree == tree {
			return "", NewError(ErrNothingToCommit, "commit", fmt.Errorf("no changes staged since %s", parentHash.Short()))
		}
	}

	commitHash, err := r.WriteCommit(tree, parents, author, committer, message)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if err := r.UpdateRef(headRef, commitHash); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if mergeInProgress {
		r.clearMergeState()
	}

	return commitHash, nil
}

// HasUnresolvedConflicts reports whether the on-disk index still carries
// any stage 1/2/3 entries from an unfinished merge or rebase step.
func (r *Repository) HasUnresolvedConflicts() bool {
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return false
	}
	return idx.HasConflicts()
}

func readMergeHead(path string) (Hash, bool) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: fixed repository-relative path
	if err != nil {
		return "", false
	}
	trimmed := string(content)
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == '\r') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if trimmed == "" {
		return "", false
	}
	return Hash(trimmed), true
}
