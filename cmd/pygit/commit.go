package main

import (
	"fmt"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runCommit(repo *gitcore.Repository, args []string) int {
	var message string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--message":
			if i+1 >= len(args) {
				return exitUsage("usage: pygit commit -m <message>")
			}
			message = args[i+1]
			i++
		default:
			return exitUsage("usage: pygit commit -m <message>")
		}
	}
	if message == "" {
		return exitUsage("usage: pygit commit -m <message>")
	}

	sig, err := resolveCommitter(repo)
	if err != nil {
		return exitError(err)
	}

	hash, err := repo.Commit(sig, sig, message)
	if err != nil {
		return exitError(err)
	}

	branch := repo.HeadRef()
	fmt.Printf("[%s %s] %s\n", branchDisplayName(branch), hash.Short(), message)
	return 0
}

func branchDisplayName(ref string) string {
	const prefix = "refs/heads/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}
