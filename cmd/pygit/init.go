package main

import (
	"fmt"
	"path/filepath"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runInit(args []string) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := gitcore.InitRepository(dir); err != nil {
		return exitError(err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	fmt.Printf("Initialized empty pygit repository in %s\n", filepath.Join(abs, ".pygit"))
	return 0
}
