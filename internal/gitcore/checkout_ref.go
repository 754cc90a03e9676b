package gitcore

import "fmt"

// CheckoutResult reports how HEAD ended up after a CheckoutRef call.
type CheckoutResult struct {
	Hash     Hash
	Branch   string // non-empty when HEAD now tracks this branch
	Detached bool
}

// CheckoutRef resolves rev and materialises its tree into the working
// directory and index, attaching HEAD to the branch named rev if one
// exists with that exact name, or detaching HEAD at the resolved commit
// otherwise. force is forwarded to Materialise to allow clobbering local
// modifications.
func (r *Repository) CheckoutRef(rev string, force bool) (*CheckoutResult, error) {
	target, err := r.Resolve(rev)
	if err != nil {
		return nil, err
	}

	commit, err := r.GetCommit(target)
	if err != nil {
		return nil, NewError(ErrBadRevision, "checkout", fmt.Errorf("%s: not a commit: %w", rev, err))
	}

	oldIndex, err := ReadIndex(r.gitDir)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if _, err := r.Materialise(commit.Tree, oldIndex, CheckoutOptions{Force: force}); err != nil {
		return nil, err
	}

	branches := r.Branches()
	if _, isBranch := branches[rev]; isBranch {
		if err := r.UpdateSymbolicRef("HEAD", "refs/heads/"+rev); err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		return &CheckoutResult{Hash: target, Branch: rev}, nil
	}

	if err := r.DetachHead(target); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return &CheckoutResult{Hash: target, Detached: true}, nil
}
