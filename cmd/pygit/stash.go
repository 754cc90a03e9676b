package main

import (
	"fmt"
	"os"

	"github.com/rybkr/pygit/internal/gitcore"
	"github.com/rybkr/pygit/internal/termcolor"
)

func runStash(repo *gitcore.Repository, args []string, _ *termcolor.Writer) int {
	if len(args) == 0 {
		return runStashPush(repo, nil)
	}

	switch args[0] {
	case "list":
		stashes := repo.Stashes()
		for i, s := range stashes {
			fmt.Printf("stash@{%d}: %s\n", i, s.Message)
		}
		return 0
	case "push":
		return runStashPush(repo, args[1:])
	case "pop":
		return runStashPop(repo)
	default:
		fmt.Fprintln(os.Stderr, "usage: pygit stash [push [-m <msg>]|list|pop]")
		return 2
	}
}

func runStashPush(repo *gitcore.Repository, args []string) int {
	message := "WIP"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--message":
			if i+1 >= len(args) {
				return exitUsage("usage: pygit stash push [-m <msg>]")
			}
			message = args[i+1]
			i++
		default:
			return exitUsage("usage: pygit stash push [-m <msg>]")
		}
	}

	committer, err := resolveCommitter(repo)
	if err != nil {
		return exitError(err)
	}

	entry, err := repo.StashPush(committer, message)
	if err != nil {
		return exitError(err)
	}

	fmt.Printf("Saved working directory and index state: %s\n", entry.Message)
	return 0
}

func runStashPop(repo *gitcore.Repository) int {
	entry, err := repo.StashPop()
	if err != nil {
		return exitError(err)
	}
	fmt.Printf("Dropped %s\n", entry.Message)
	return 0
}
