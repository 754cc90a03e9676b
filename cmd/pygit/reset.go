package main

import (
	"fmt"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runReset(repo *gitcore.Repository, args []string) int {
	mode := gitcore.ResetMixed
	var rev string

	for _, arg := range args {
		switch arg {
		case "--soft":
			mode = gitcore.ResetSoft
		case "--mixed":
			mode = gitcore.ResetMixed
		case "--hard":
			mode = gitcore.ResetHard
		default:
			rev = arg
		}
	}
	if rev == "" {
		return exitUsage("usage: pygit reset --soft|--mixed|--hard <id>")
	}

	target, err := repo.Resolve(rev)
	if err != nil {
		return exitError(err)
	}

	if err := repo.Reset(target, mode); err != nil {
		return exitError(err)
	}

	fmt.Printf("HEAD is now at %s\n", target.Short())
	return 0
}
