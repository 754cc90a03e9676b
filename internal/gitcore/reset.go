package gitcore

import "fmt"

// ResetMode selects how far a Reset unwinds: HEAD only, HEAD and index, or
// HEAD, index, and the working tree.
type ResetMode int

const (
	ResetSoft ResetMode = iota
	ResetMixed
	ResetHard
)

// Reset moves the current branch (or detached HEAD) to target. ResetMixed
// additionally rewrites the index to target's tree, leaving the working
// tree untouched; ResetHard also materialises target's tree into the
// working directory, discarding local modifications.
func (r *Repository) Reset(target Hash, mode ResetMode) error {
	commit, err := r.GetCommit(target)
	if err != nil {
		return NewError(ErrBadRevision, "reset", fmt.Errorf("%s: not a commit: %w", target, err))
	}

	if headRef := r.HeadRef(); headRef != "" {
		if err := r.UpdateRef(headRef, target); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	} else {
		if err := r.DetachHead(target); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}

	if mode == ResetSoft {
		return nil
	}

	oldIndex, err := ReadIndex(r.gitDir)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if mode == ResetMixed {
		targetFiles, err := flattenTree(r, commit.Tree, "")
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		newIndex := NewIndex()
		for path, hash := range targetFiles {
			newIndex.Stage(path, hash, 0100644)
		}
		return WriteIndex(r.gitDir, newIndex)
	}

	if _, err := r.Materialise(commit.Tree, oldIndex, CheckoutOptions{Force: true}); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
