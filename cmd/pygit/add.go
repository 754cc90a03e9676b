package main

import (
	"fmt"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runAdd(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		return exitUsage("usage: pygit add <paths...>")
	}

	staged, err := repo.AddPaths(args)
	if err != nil {
		return exitError(err)
	}

	for _, path := range staged {
		fmt.Printf("add '%s'\n", path)
	}
	return 0
}
