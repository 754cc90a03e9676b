package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RebaseResult describes the outcome of starting or continuing a rebase:
// either it ran to completion, or it stopped with conflicts that need
// resolving before `rebase --continue`.
type RebaseResult struct {
	Completed       bool
	NewHead         Hash
	StoppedAt       Hash
	ConflictedPaths []string
}

// rebaseState holds the paths `rebase-apply/` persists so a conflicted
// rebase can be resumed (--continue) or reverted (--abort) in a later
// invocation of the CLI.
type rebaseState struct {
	dir string
}

func (r *Repository) rebaseState() rebaseState {
	return rebaseState{dir: filepath.Join(r.gitDir, "rebase-apply")}
}

func (s rebaseState) path(name string) string { return filepath.Join(s.dir, name) }

func (s rebaseState) inProgress() bool {
	_, err := os.Stat(s.dir)
	return err == nil
}

func (s rebaseState) write(headRef string, origHead, onto Hash, todo []Hash, stoppedAt Hash) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("rebase: %w", err)
	}
	if err := atomicWriteFile(s.path("head-name"), []byte(headRef+"\n"), 0o644); err != nil {
		return fmt.Errorf("rebase: %w", err)
	}
	if err := atomicWriteFile(s.path("orig-head"), []byte(string(origHead)+"\n"), 0o644); err != nil {
		return fmt.Errorf("rebase: %w", err)
	}
	if err := atomicWriteFile(s.path("onto"), []byte(string(onto)+"\n"), 0o644); err != nil {
		return fmt.Errorf("rebase: %w", err)
	}
	lines := make([]string, len(todo))
	for i, h := range todo {
		lines[i] = string(h)
	}
	if err := atomicWriteFile(s.path("todo"), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("rebase: %w", err)
	}
	if stoppedAt != "" {
		if err := atomicWriteFile(s.path("stopped-sha"), []byte(string(stoppedAt)+"\n"), 0o644); err != nil {
			return fmt.Errorf("rebase: %w", err)
		}
	} else {
		_ = os.Remove(s.path("stopped-sha"))
	}
	return nil
}

func (s rebaseState) read() (headRef string, origHead, onto Hash, todo []Hash, stoppedAt Hash, err error) {
	headRefB, err := os.ReadFile(s.path("head-name")) //nolint:gosec // G304: rebase-apply state lives under the repo's own git dir
	if err != nil {
		return "", "", "", nil, "", fmt.Errorf("rebase: no rebase in progress: %w", err)
	}
	headRef = strings.TrimSpace(string(headRefB))

	origB, err := os.ReadFile(s.path("orig-head")) //nolint:gosec // G304: see above
	if err != nil {
		return "", "", "", nil, "", fmt.Errorf("rebase: %w", err)
	}
	origHead = Hash(strings.TrimSpace(string(origB)))

	ontoB, err := os.ReadFile(s.path("onto")) //nolint:gosec // G304: see above
	if err != nil {
		return "", "", "", nil, "", fmt.Errorf("rebase: %w", err)
	}
	onto = Hash(strings.TrimSpace(string(ontoB)))

	todoB, err := os.ReadFile(s.path("todo")) //nolint:gosec // G304: see above
	if err != nil {
		return "", "", "", nil, "", fmt.Errorf("rebase: %w", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(todoB)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			todo = append(todo, Hash(line))
		}
	}

	if stoppedB, rerr := os.ReadFile(s.path("stopped-sha")); rerr == nil { //nolint:gosec // G304: see above
		stoppedAt = Hash(strings.TrimSpace(string(stoppedB)))
	}

	return headRef, origHead, onto, todo, stoppedAt, nil
}

func (s rebaseState) clear() error {
	return os.RemoveAll(s.dir)
}

// RebaseStart replays the commits unique to headRef's current tip (relative
// to its merge base with target) one at a time onto target, committing each
// clean replay and stopping at the first conflict. headRef is the branch
// being rebased (e.g. "refs/heads/feature"); its current tip is read via
// r.Resolve(headRef).
func (r *Repository) RebaseStart(headRef string, target Hash, committer Signature) (*RebaseResult, error) {
	origHead, err := r.Resolve(headRef)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	base, err := MergeBase(r, origHead, target)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	todo, err := r.firstParentChain(origHead, base)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	state := r.rebaseState()
	if err := state.write(headRef, origHead, target, todo, ""); err != nil {
		return nil, err
	}

	return r.rebaseDrain(state, headRef, committer)
}

// RebaseContinue commits the currently-resolved conflict (the index must
// have no remaining stage >0 entries) as the replay of the commit rebase
// stopped at, then resumes replaying the rest of the todo list.
func (r *Repository) RebaseContinue(committer Signature) (*RebaseResult, error) {
	state := r.rebaseState()
	if !state.inProgress() {
		return nil, NewError(ErrNotFound, "rebase --continue", fmt.Errorf("no rebase in progress"))
	}
	headRef, origHead, onto, todo, stoppedAt, err := state.read()
	if err != nil {
		return nil, err
	}

	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("rebase --continue: %w", err)
	}
	if idx.HasConflicts() {
		return nil, NewError(ErrMergeConflict, "rebase --continue", fmt.Errorf("unresolved conflicts remain staged"))
	}

	if stoppedAt != "" {
		stopped, err := r.GetCommit(stoppedAt)
		if err != nil {
			return nil, fmt.Errorf("rebase --continue: %w", err)
		}
		tree, err := r.WriteTreeFromIndex(idx)
		if err != nil {
			return nil, fmt.Errorf("rebase --continue: %w", err)
		}
		newCommit, err := r.WriteCommit(tree, []Hash{onto}, stopped.Author, committer, stopped.Message)
		if err != nil {
			return nil, fmt.Errorf("rebase --continue: %w", err)
		}
		onto = newCommit
		r.clearMergeState()
	}

	if err := state.write(headRef, origHead, onto, todo, ""); err != nil {
		return nil, err
	}
	return r.rebaseDrain(state, headRef, committer)
}

// RebaseAbort restores headRef and the working tree to their state before
// the rebase began, and discards rebase-apply state.
func (r *Repository) RebaseAbort() error {
	state := r.rebaseState()
	if !state.inProgress() {
		return NewError(ErrNotFound, "rebase --abort", fmt.Errorf("no rebase in progress"))
	}
	headRef, origHead, _, _, _, err := state.read()
	if err != nil {
		return err
	}

	origCommit, err := r.GetCommit(origHead)
	if err != nil {
		return fmt.Errorf("rebase --abort: %w", err)
	}
	idx, err := ReadIndex(r.gitDir)
	if err != nil {
		return fmt.Errorf("rebase --abort: %w", err)
	}
	if _, err := r.Materialise(origCommit.Tree, idx, CheckoutOptions{Force: true}); err != nil {
		return fmt.Errorf("rebase --abort: %w", err)
	}
	if err := r.UpdateRef(headRef, origHead); err != nil {
		return fmt.Errorf("rebase --abort: %w", err)
	}
	r.clearMergeState()
	return state.clear()
}

// rebaseDrain replays todo entries from state onto the running "onto" tip
// until either the list is exhausted (success: headRef is advanced and
// state cleared) or a replay conflicts (state persists the remainder).
func (r *Repository) rebaseDrain(state rebaseState, headRef string, committer Signature) (*RebaseResult, error) {
	for {
		_, origHead, onto, todo, _, err := state.read()
		if err != nil {
			return nil, err
		}
		if len(todo) == 0 {
			if err := r.UpdateRef(headRef, onto); err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			ontoCommit, err := r.GetCommit(onto)
			if err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			idx, err := ReadIndex(r.gitDir)
			if err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			if _, err := r.Materialise(ontoCommit.Tree, idx, CheckoutOptions{Force: true}); err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			if err := state.clear(); err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			return &RebaseResult{Completed: true, NewHead: onto}, nil
		}

		next := todo[0]
		result, err := r.replayOne(state, headRef, origHead, onto, next, todo[1:], committer)
		if err != nil {
			return result, err
		}
		if result != nil {
			return result, nil
		}
		// Clean replay: loop to drain the rest of todo.
	}
}

// replayOne three-way merges next's own change (diffed against its first
// parent) onto the current onto tip. A clean replay writes a new commit,
// advances state, and returns (nil, nil) so rebaseDrain continues. A
// conflicting replay stages markers, persists resumable state, and returns
// a non-nil *RebaseResult alongside ErrMergeConflict.
func (r *Repository) replayOne(state rebaseState, headRef string, origHead, onto, next Hash, rest []Hash, committer Signature) (*RebaseResult, error) {
	commit, err := r.GetCommit(next)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	var parentTree Hash
	if len(commit.Parents) > 0 {
		parent, err := r.GetCommit(commit.Parents[0])
		if err != nil {
			return nil, fmt.Errorf("rebase: %w", err)
		}
		parentTree = parent.Tree
	} else {
		empty, err := r.WriteTreeFromIndex(NewIndex())
		if err != nil {
			return nil, fmt.Errorf("rebase: %w", err)
		}
		parentTree = empty
	}

	ontoCommit, err := r.GetCommit(onto)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	preview, err := previewTrees(r, parentTree, ontoCommit.Tree, commit.Tree)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	ontoFiles, err := flattenTree(r, ontoCommit.Tree, "")
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	newIndex := NewIndex()
	for path, hash := range ontoFiles {
		newIndex.Stage(path, hash, 0100644)
	}

	var conflicted []string
	for _, entry := range preview.Entries {
		if entry.ConflictType == ConflictNone {
			if err := r.applyCleanMerge(newIndex, entry); err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			continue
		}

		diff, err := ComputeThreeWayDiff(r, entry.BaseHash, entry.OursHash, entry.TheirsHash, entry.Path)
		if err != nil {
			return nil, fmt.Errorf("rebase: %s: %w", entry.Path, err)
		}
		if diff.Stats.ConflictRegions == 0 {
			if err := r.applyCleanMerge(newIndex, entry); err != nil {
				return nil, fmt.Errorf("rebase: %w", err)
			}
			continue
		}

		abs := filepath.Join(r.workDir, entry.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("rebase: %s: %w", entry.Path, err)
		}
		merged := renderConflictMarkers(diff, next.Short())
		if err := os.WriteFile(abs, []byte(merged), 0o644); err != nil {
			return nil, fmt.Errorf("rebase: %s: %w", entry.Path, err)
		}
		newIndex.StageConflict(entry.Path, entry.BaseHash, entry.OursHash, entry.TheirsHash, 0100644)
		conflicted = append(conflicted, entry.Path)
	}

	if err := WriteIndex(r.gitDir, newIndex); err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}

	if len(conflicted) > 0 {
		if err := state.write(headRef, origHead, onto, append([]Hash{next}, rest...), next); err != nil {
			return nil, err
		}
		if err := r.writeMergeState(next, commit.Message); err != nil {
			return nil, err
		}
		return &RebaseResult{StoppedAt: next, ConflictedPaths: conflicted},
			NewError(ErrMergeConflict, "rebase", fmt.Errorf("%d conflicting file(s) replaying %s", len(conflicted), next.Short()))
	}

	tree, err := r.WriteTreeFromIndex(newIndex)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	newCommit, err := r.WriteCommit(tree, []Hash{onto}, commit.Author, committer, commit.Message)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	if err := state.write(headRef, origHead, newCommit, rest, ""); err != nil {
		return nil, err
	}
	return nil, nil
}

// firstParentChain returns the first-parent commits strictly after base up
// to and including tip, oldest first — the sequence a rebase replays.
func (r *Repository) firstParentChain(tip, base Hash) ([]Hash, error) {
	var chain []Hash
	current := tip
	for current != base && current != "" {
		chain = append(chain, current)
		commit, err := r.GetCommit(current)
		if err != nil {
			return nil, fmt.Errorf("firstParentChain: %w", err)
		}
		if len(commit.Parents) == 0 {
			break
		}
		current = commit.Parents[0]
	}
	// Reverse to oldest-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
