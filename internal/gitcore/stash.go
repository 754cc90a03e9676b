package gitcore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// stashLogPath is where pygit records its stash stack: one line per entry,
// "<stash-commit-id>\t<message>", newest entry first.
func stashLogPath(gitDir string) string {
	return filepath.Join(gitDir, "stash", "log")
}

// readStashLog parses the stash log, returning entries newest-first. A
// missing file means no stashes exist and is not an error.
func readStashLog(gitDir string) ([]StashEntry, error) {
	//nolint:gosec // G304: path is derived from the repository's own git directory
	f, err := os.Open(stashLogPath(gitDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stash log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var entries []StashEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		hashStr, message, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		hash, err := NewHash(hashStr)
		if err != nil {
			continue
		}
		entries = append(entries, StashEntry{Hash: hash, Message: message})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stash log: %w", err)
	}
	return entries, nil
}

// writeStashLog overwrites the stash log with entries, newest first.
func writeStashLog(gitDir string, entries []StashEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\n", e.Hash, e.Message)
	}
	return atomicWriteFile(stashLogPath(gitDir), []byte(b.String()), 0o644)
}

// StashPush records the current index and working tree as a stash entry,
// then resets both back to HEAD. The stash is stored as two ordinary commit
// objects: an inner commit whose tree is the working tree (parented on the
// commit HEAD pointed at when stashing), and an outer commit whose tree is
// the index and whose sole parent is the inner commit. This realizes the
// (index-tree, work-tree, parent-commit, message) tuple using nothing but
// the existing commit/tree object kinds.
func (r *Repository) StashPush(committer Signature, message string) (*StashEntry, error) {
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}

	indexTree, err := r.WriteTreeFromIndex(idx)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}

	workIdx := NewIndex()
	for _, e := range idx.Entries {
		if e.Stage != 0 {
			continue
		}
		abs := filepath.Join(r.workDir, e.Path)
		content, readErr := os.ReadFile(abs) //nolint:gosec // G304: path comes from the repository's own index
		if readErr != nil {
			continue // working-tree deletion: omit from the stashed working tree
		}
		blob, writeErr := r.WriteBlob(content)
		if writeErr != nil {
			return nil, fmt.Errorf("stash push: %w", writeErr)
		}
		workIdx.Stage(e.Path, blob, e.Mode)
	}
	workTree, err := r.WriteTreeFromIndex(workIdx)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}

	parent := r.Head()
	var innerParents []Hash
	if parent != "" {
		innerParents = []Hash{parent}
	}

	inner, err := r.WriteCommit(workTree, innerParents, committer, committer, message)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}
	outer, err := r.WriteCommit(indexTree, []Hash{inner}, committer, committer, message)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}

	entries, err := readStashLog(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}
	entry := StashEntry{Hash: outer, Message: message}
	entries = append([]StashEntry{entry}, entries...)
	if err := writeStashLog(r.gitDir, entries); err != nil {
		return nil, fmt.Errorf("stash push: %w", err)
	}

	r.mu.Lock()
	r.stashes = append([]*StashEntry{{Hash: entry.Hash, Message: entry.Message}}, r.stashes...)
	r.mu.Unlock()

	if parent != "" {
		headCommit, err := r.GetCommit(parent)
		if err != nil {
			return nil, fmt.Errorf("stash push: %w", err)
		}
		if _, err := r.Materialise(headCommit.Tree, idx, CheckoutOptions{Force: true}); err != nil {
			return nil, fmt.Errorf("stash push: %w", err)
		}
	}

	return &entry, nil
}

// StashPop applies the most recent stash entry back onto the working tree
// and index, then drops it from the stash log. Returns ErrNotFound if the
// stash is empty.
func (r *Repository) StashPop() (*StashEntry, error) {
	entries, err := readStashLog(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}
	if len(entries) == 0 {
		return nil, NewError(ErrNotFound, "stash pop", fmt.Errorf("no stash entries found"))
	}
	top := entries[0]

	stashCommit, err := r.GetCommit(top.Hash)
	if err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}
	if len(stashCommit.Parents) == 0 {
		return nil, NewError(ErrCorrupt, "stash pop", fmt.Errorf("stash commit %s has no working-tree parent", top.Hash))
	}
	innerCommit, err := r.GetCommit(stashCommit.Parents[0])
	if err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}

	oldIndex, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}
	if _, err := r.Materialise(innerCommit.Tree, oldIndex, CheckoutOptions{Force: true}); err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}

	idxFiles, err := flattenTree(r, stashCommit.Tree, "")
	if err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}
	finalIndex := NewIndex()
	for path, hash := range idxFiles {
		finalIndex.Stage(path, hash, 0100644)
	}
	if err := WriteIndex(r.gitDir, finalIndex); err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}

	remaining := entries[1:]
	if err := writeStashLog(r.gitDir, remaining); err != nil {
		return nil, fmt.Errorf("stash pop: %w", err)
	}

	r.mu.Lock()
	if len(r.stashes) > 0 {
		r.stashes = r.stashes[1:]
	}
	r.mu.Unlock()

	return &top, nil
}
