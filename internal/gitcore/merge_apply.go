package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MergeResult is the outcome of applying a merge: a fast-forward, a no-op
// (already up to date), a clean merge commit, or a set of paths left
// conflicted and staged for the caller to resolve.
type MergeResult struct {
	FastForward     bool
	AlreadyUpToDate bool
	CommitHash      Hash
	ConflictedPaths []string
}

// IsAncestor reports whether a is an ancestor of, or equal to, b.
func (r *Repository) IsAncestor(a, b Hash) (bool, error) {
	if a == b {
		return true, nil
	}

	r.mu.RLock()
	cm := r.commitsMap()
	r.mu.RUnlock()

	visited := make(map[Hash]bool)
	queue := []Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if visited[h] {
			continue
		}
		visited[h] = true
		c, ok := cm[h]
		if !ok {
			continue
		}
		queue = append(queue, c.Parents...)
	}
	return false, nil
}

// FastForward moves refName directly to target and materialises its tree,
// with no merge commit. Callers are responsible for having established that
// target descends from refName's current tip.
func (r *Repository) FastForward(refName string, target Hash) (*Index, error) {
	commit, err := r.GetCommit(target)
	if err != nil {
		return nil, fmt.Errorf("fast-forward: %w", err)
	}

	oldIndex, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("fast-forward: %w", err)
	}

	newIndex, err := r.Materialise(commit.Tree, oldIndex, CheckoutOptions{})
	if err != nil {
		return nil, fmt.Errorf("fast-forward: %w", err)
	}

	if err := r.UpdateRef(refName, target); err != nil {
		return nil, fmt.Errorf("fast-forward: %w", err)
	}
	return newIndex, nil
}

// Merge merges theirsHash into oursHash on behalf of branch oursRef (e.g.
// "refs/heads/main"), labeling conflict markers with theirsLabel (typically
// the branch or ref name named on the command line).
//
// It no-ops when theirs is already an ancestor of ours, fast-forwards when
// ours is an ancestor of theirs, and otherwise performs a three-way merge:
// paths that change cleanly on only one side (or identically on both) are
// written directly; paths classified as conflicting get <<<<<<< / ======= /
// >>>>>>> markers written into the working tree and are staged at merge
// stages 1/2/3. If any conflicts remain, MERGE_HEAD and MERGE_MSG are
// written, the index is left with the conflict stages, and Merge returns an
// ErrMergeConflict error alongside the partial result; otherwise it writes
// a merge commit with both parents and advances oursRef to it.
func (r *Repository) Merge(oursRef string, oursHash, theirsHash Hash, theirsLabel string, committer Signature, message string) (*MergeResult, error) {
	if oursHash == theirsHash {
		return &MergeResult{AlreadyUpToDate: true}, nil
	}

	theirsIsAncestor, err := r.IsAncestor(theirsHash, oursHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if theirsIsAncestor {
		return &MergeResult{AlreadyUpToDate: true}, nil
	}

	canFastForward, err := r.IsAncestor(oursHash, theirsHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if canFastForward {
		if _, err := r.FastForward(oursRef, theirsHash); err != nil {
			return nil, err
		}
		return &MergeResult{FastForward: true, CommitHash: theirsHash}, nil
	}

	preview, err := MergePreview(r, oursHash, theirsHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	oldIndex, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	newIndex := NewIndex()
	for _, e := range oldIndex.Entries {
		if e.Stage == 0 {
			newIndex.Stage(e.Path, e.Hash, e.Mode)
		}
	}

	var conflicted []string
	for _, entry := range preview.Entries {
		if entry.ConflictType == ConflictNone {
			if err := r.applyCleanMerge(newIndex, entry); err != nil {
				return nil, err
			}
			continue
		}

		diff, err := ComputeThreeWayDiff(r, entry.BaseHash, entry.OursHash, entry.TheirsHash, entry.Path)
		if err != nil {
			return nil, fmt.Errorf("merge: %s: %w", entry.Path, err)
		}

		if diff.Stats.ConflictRegions == 0 {
			// Classified as a conflict by file status (e.g. both added), but
			// the line-level merge never actually overlapped.
			if err := r.applyCleanMerge(newIndex, entry); err != nil {
				return nil, err
			}
			continue
		}

		abs := filepath.Join(r.workDir, entry.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("merge: %s: %w", entry.Path, err)
		}
		merged := renderConflictMarkers(diff, theirsLabel)
		if err := os.WriteFile(abs, []byte(merged), 0o644); err != nil {
			return nil, fmt.Errorf("merge: %s: %w", entry.Path, err)
		}
		newIndex.StageConflict(entry.Path, entry.BaseHash, entry.OursHash, entry.TheirsHash, 0100644)
		conflicted = append(conflicted, entry.Path)
	}

	if err := WriteIndex(r.gitDir, newIndex); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if len(conflicted) > 0 {
		if err := r.writeMergeState(theirsHash, message); err != nil {
			return nil, err
		}
		result := &MergeResult{ConflictedPaths: conflicted}
		return result, NewError(ErrMergeConflict, "merge", fmt.Errorf("%d conflicting file(s)", len(conflicted)))
	}

	tree, err := r.WriteTreeFromIndex(newIndex)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	commitHash, err := r.WriteCommit(tree, []Hash{oursHash, theirsHash}, committer, committer, message)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.UpdateRef(oursRef, commitHash); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	r.clearMergeState()

	return &MergeResult{CommitHash: commitHash}, nil
}

// applyCleanMerge writes the surviving side of a non-conflicting path (or
// removes it if both sides agree it's gone) and stages the result.
func (r *Repository) applyCleanMerge(idx *Index, entry MergePreviewEntry) error {
	hash := entry.OursHash
	if hash == "" {
		hash = entry.TheirsHash
	}

	abs := filepath.Join(r.workDir, entry.Path)
	if hash == "" {
		idx.Unstage(entry.Path)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("merge: remove %s: %w", entry.Path, err)
		}
		return nil
	}

	content, err := r.GetBlob(hash)
	if err != nil {
		return fmt.Errorf("merge: %s: %w", entry.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("merge: %s: %w", entry.Path, err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return fmt.Errorf("merge: %s: %w", entry.Path, err)
	}
	idx.Stage(entry.Path, hash, 0100644)
	return nil
}

// renderConflictMarkers flattens a ThreeWayFileDiff's regions back into file
// content, wrapping conflicting regions in Git's standard markers.
func renderConflictMarkers(diff *ThreeWayFileDiff, theirsLabel string) string {
	var b strings.Builder
	for _, region := range diff.Regions {
		switch region.Type {
		case MergeRegionContext:
			writeLines(&b, region.BaseLines)
		case MergeRegionOurs:
			writeLines(&b, region.OursLines)
		case MergeRegionTheirs:
			writeLines(&b, region.TheirsLines)
		case MergeRegionConflict:
			b.WriteString("<<<<<<< HEAD\n")
			writeLines(&b, region.OursLines)
			b.WriteString("=======\n")
			writeLines(&b, region.TheirsLines)
			fmt.Fprintf(&b, ">>>>>>> %s\n", theirsLabel)
		}
	}
	return b.String()
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
}

// writeMergeState records an in-progress conflicted merge so a later
// `commit` knows to write a merge commit with MERGE_HEAD as the second parent.
func (r *Repository) writeMergeState(theirsHash Hash, message string) error {
	if err := atomicWriteFile(filepath.Join(r.gitDir, "MERGE_HEAD"), []byte(string(theirsHash)+"\n"), 0o644); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(r.gitDir, "MERGE_MSG"), []byte(message+"\n"), 0o644); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

func (r *Repository) clearMergeState() {
	_ = os.Remove(filepath.Join(r.gitDir, "MERGE_HEAD"))
	_ = os.Remove(filepath.Join(r.gitDir, "MERGE_MSG"))
}
