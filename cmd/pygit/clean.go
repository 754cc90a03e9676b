package main

import (
	"fmt"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runClean(repo *gitcore.Repository, args []string) int {
	dryRun := false
	force := false
	includeDirs := false

	for _, arg := range args {
		switch arg {
		case "-n", "--dry-run":
			dryRun = true
		case "-f", "--force":
			force = true
		case "-d":
			includeDirs = true
		default:
			return exitUsage("usage: pygit clean -n|-f [-d]")
		}
	}

	if dryRun == force {
		return exitUsage("usage: pygit clean -n|-f [-d] (pick exactly one of -n, -f)")
	}

	plan, err := repo.PlanClean(includeDirs)
	if err != nil {
		return exitError(err)
	}

	for _, p := range plan.Paths {
		if dryRun {
			fmt.Printf("Would remove %s\n", p)
		} else {
			fmt.Printf("Removing %s\n", p)
		}
	}

	if force {
		if err := repo.Clean(plan); err != nil {
			return exitError(err)
		}
	}
	return 0
}
