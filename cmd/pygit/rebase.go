package main

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/rybkr/pygit/internal/config"
	"github.com/rybkr/pygit/internal/gitcore"
)

func runRebase(repo *gitcore.Repository, args []string) int {
	if len(args) == 1 && args[0] == "--abort" {
		if err := repo.RebaseAbort(); err != nil {
			return exitError(err)
		}
		fmt.Println("Rebase aborted.")
		return 0
	}

	committer, err := resolveCommitter(repo)
	if err != nil {
		return exitError(err)
	}

	if len(args) == 1 && args[0] == "--continue" {
		result, err := repo.RebaseContinue(committer)
		return reportRebaseResult(result, err)
	}

	if len(args) != 1 {
		return exitUsage("usage: pygit rebase [--continue|--abort] <target>")
	}

	headRef := repo.HeadRef()
	if headRef == "" {
		return exitError(gitcore.NewError(gitcore.ErrDirty, "rebase", fmt.Errorf("HEAD is detached; checkout a branch first")))
	}

	target, err := repo.Resolve(args[0])
	if err != nil {
		return exitError(err)
	}

	result, err := repo.RebaseStart(headRef, target, committer)
	return reportRebaseResult(result, err)
}

func reportRebaseResult(result *gitcore.RebaseResult, err error) int {
	if err != nil {
		if gitcore.KindOf(err) == gitcore.ErrMergeConflict && result != nil {
			pterm.Warning.Printfln("could not apply %s", result.StoppedAt.Short())
			for _, p := range result.ConflictedPaths {
				pterm.Error.Printfln("CONFLICT (content): Merge conflict in %s", p)
			}
			pterm.Info.Println("Resolve the conflicts, then run 'pygit rebase --continue'.")
		}
		return exitError(err)
	}
	pterm.Success.Printfln("Successfully rebased onto %s", result.NewHead.Short())
	return 0
}

func resolveCommitter(repo *gitcore.Repository) (gitcore.Signature, error) {
	cfg, err := config.Load(filepath.Join(repo.GitDir(), "config"))
	if err != nil {
		return gitcore.Signature{}, err
	}
	identity, err := config.ResolveIdentity(cfg)
	if err != nil {
		return gitcore.Signature{}, err
	}
	return gitcore.NewSignatureNow(identity.Name, identity.Email), nil
}
