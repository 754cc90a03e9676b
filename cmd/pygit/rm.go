package main

import (
	"fmt"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runRm(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		return exitUsage("usage: pygit rm <paths...>")
	}

	removed, err := repo.RemovePaths(args)
	if err != nil {
		return exitError(err)
	}

	for _, path := range removed {
		fmt.Printf("rm '%s'\n", path)
	}
	return 0
}
