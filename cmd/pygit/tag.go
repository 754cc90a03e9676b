package main

import (
	"fmt"
	"sort"

	"github.com/rybkr/pygit/internal/gitcore"
	"github.com/rybkr/pygit/internal/termcolor"
)

func runTag(repo *gitcore.Repository, args []string, _ *termcolor.Writer) int {
	if len(args) > 0 {
		return runTagCreate(repo, args)
	}

	names := repo.TagNames()
	sort.Strings(names)

	for _, name := range names {
		fmt.Println(name)
	}

	return 0
}

func runTagCreate(repo *gitcore.Repository, args []string) int {
	var message string
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--message":
			if i+1 >= len(args) {
				return exitUsage("usage: pygit tag [-m <msg>] <name> [<id>]")
			}
			message = args[i+1]
			i++
		default:
			rest = append(rest, args[i])
		}
	}

	if len(rest) == 0 || len(rest) > 2 {
		return exitUsage("usage: pygit tag [-m <msg>] <name> [<id>]")
	}
	name := rest[0]
	target := "HEAD"
	if len(rest) == 2 {
		target = rest[1]
	}

	targetHash, err := repo.Resolve(target)
	if err != nil {
		return exitError(err)
	}

	if message == "" {
		if err := repo.CreateRef("refs/tags/"+name, targetHash); err != nil {
			return exitError(err)
		}
		return 0
	}

	committer, err := resolveCommitter(repo)
	if err != nil {
		return exitError(err)
	}

	tagHash, err := repo.WriteTag(targetHash, gitcore.CommitObject, name, committer, message)
	if err != nil {
		return exitError(err)
	}
	if err := repo.CreateRef("refs/tags/"+name, tagHash); err != nil {
		return exitError(err)
	}
	return 0
}
