package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runMerge(repo *gitcore.Repository, args []string) int {
	if len(args) != 1 {
		return exitUsage("usage: pygit merge <ref>")
	}
	theirsLabel := args[0]

	headRef := repo.HeadRef()
	if headRef == "" {
		return exitError(gitcore.NewError(gitcore.ErrDirty, "merge", fmt.Errorf("HEAD is detached; checkout a branch first")))
	}

	theirsHash, err := repo.Resolve(theirsLabel)
	if err != nil {
		return exitError(err)
	}

	committer, err := resolveCommitter(repo)
	if err != nil {
		return exitError(err)
	}

	message := fmt.Sprintf("Merge %s into %s", theirsLabel, branchDisplayName(headRef))
	result, err := repo.Merge(headRef, repo.Head(), theirsHash, theirsLabel, committer, message)
	if err != nil {
		if gitcore.KindOf(err) == gitcore.ErrMergeConflict {
			pterm.Warning.Println("Automatic merge failed; fix conflicts and then commit the result.")
			for _, p := range result.ConflictedPaths {
				pterm.Error.Printfln("CONFLICT (content): Merge conflict in %s", p)
			}
		}
		return exitError(err)
	}

	switch {
	case result.AlreadyUpToDate:
		fmt.Println("Already up to date.")
	case result.FastForward:
		fmt.Printf("Fast-forward to %s\n", result.CommitHash.Short())
	default:
		fmt.Printf("Merge made by the 'recursive' strategy: %s\n", result.CommitHash.Short())
	}
	return 0
}
