package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/rybkr/pygit/internal/gitcore"
)

func runCheckout(repo *gitcore.Repository, args []string) int {
	force := false
	var rev string
	var newBranch string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f", "--force":
			force = true
		case "-b":
			if i+1 >= len(args) {
				return exitUsage("usage: pygit checkout -b <name> [<start>]")
			}
			newBranch = args[i+1]
			i++
		default:
			rev = args[i]
		}
	}

	if newBranch != "" {
		start := rev
		if start == "" {
			start = "HEAD"
		}
		startHash, err := repo.Resolve(start)
		if err != nil {
			return exitError(err)
		}
		if err := repo.CreateRef("refs/heads/"+newBranch, startHash); err != nil {
			return exitError(err)
		}
		rev = newBranch
	}

	if rev == "" {
		return exitUsage("usage: pygit checkout <ref-or-id>")
	}

	spinner, _ := pterm.DefaultSpinner.Start("Updating files")
	result, err := repo.CheckoutRef(rev, force)
	if err != nil {
		spinner.Fail("Checkout failed")
		return exitError(err)
	}

	if result.Detached {
		spinner.Success(fmt.Sprintf("HEAD is now at %s", result.Hash.Short()))
	} else {
		spinner.Success(fmt.Sprintf("Switched to branch '%s'", result.Branch))
	}
	return 0
}
