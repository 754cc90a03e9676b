package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rybkr/pygit/internal/gitcore"
	"github.com/rybkr/pygit/internal/termcolor"
)

func runBranch(repo *gitcore.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) > 0 {
		return runBranchCreate(repo, args)
	}

	branches := repo.Branches()

	names := make([]string, 0, len(branches))
	for name := range branches {
		names = append(names, name)
	}
	sort.Strings(names)

	// Determine current branch from HEAD symbolic ref
	current := ""
	if ref := repo.HeadRef(); ref != "" {
		current = strings.TrimPrefix(ref, "refs/heads/")
	}

	for _, name := range names {
		if name == current {
			fmt.Printf("* %s\n", cw.Green(name))
		} else {
			fmt.Printf("  %s\n", name)
		}
	}

	return 0
}

func runBranchCreate(repo *gitcore.Repository, args []string) int {
	if len(args) > 2 {
		return exitUsage("usage: pygit branch [<name> [<start>]]")
	}

	name := args[0]
	start := "HEAD"
	if len(args) == 2 {
		start = args[1]
	}

	startHash, err := repo.Resolve(start)
	if err != nil {
		return exitError(err)
	}

	if err := repo.CreateRef("refs/heads/"+name, startHash); err != nil {
		return exitError(err)
	}
	return 0
}
