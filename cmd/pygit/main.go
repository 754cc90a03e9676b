package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rybkr/pygit/internal/cli"
	"github.com/rybkr/pygit/internal/gitcore"
	"github.com/rybkr/pygit/internal/termcolor"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	gf, args := parseGlobalFlags(os.Args[1:])

	// --version is handled before app.Run because "--" prefixed args
	// would be treated as unknown commands by the dispatcher.
	for _, a := range args {
		if a == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	app := cli.NewApp("pygit", version)
	app.Stderr = os.Stderr

	// repo is declared here and assigned after dispatch determines that
	// the matched command needs it (NeedsRepo). Closures capture the
	// pointer variable, which is populated before they execute.
	var repo *gitcore.Repository

	app.Register(&cli.Command{
		Name:      "init",
		Summary:   "Create an empty pygit repository",
		Usage:     "pygit init [<directory>]",
		NeedsRepo: false,
		Run:       runInit,
	})

	app.Register(&cli.Command{
		Name:      "add",
		Summary:   "Stage file contents",
		Usage:     "pygit add <paths...>",
		Examples:  []string{"pygit add file.txt", "pygit add ."},
		NeedsRepo: true,
		Run:       func(args []string) int { return runAdd(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "rm",
		Summary:   "Remove tracked files from the index and working tree",
		Usage:     "pygit rm <paths...>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runRm(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Record a commit from the staged content",
		Usage:     "pygit commit -m <message>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "checkout",
		Summary:   "Switch branches or restore a tree at a revision",
		Usage:     "pygit checkout [-b <name>] [-f] <ref-or-id>",
		Examples:  []string{"pygit checkout main", "pygit checkout -b feature"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "merge",
		Summary:   "Merge a ref into the current branch",
		Usage:     "pygit merge <ref>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runMerge(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "rebase",
		Summary:   "Replay the current branch's commits onto another tip",
		Usage:     "pygit rebase [--continue|--abort] <target>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runRebase(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "reset",
		Summary:   "Move HEAD and optionally the index and working tree",
		Usage:     "pygit reset --soft|--mixed|--hard <id>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runReset(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "config",
		Summary:   "Get or set a repository configuration value",
		Usage:     "pygit config <key> [<value>]",
		Examples:  []string{"pygit config user.name", "pygit config user.name \"Ada\""},
		NeedsRepo: true,
		Run:       func(args []string) int { return runConfig(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "clean",
		Summary:   "Remove untracked files from the working tree",
		Usage:     "pygit clean -n|-f [-d]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runClean(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "List or create branches",
		Usage:     "pygit branch [<name> [<start>]]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show commit log",
		Usage:     "pygit log [--oneline] [-n <count>]",
		Examples:  []string{"pygit log", "pygit log --oneline -n5"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "cat-file",
		Summary:   "Show object content, type, or size",
		Usage:     "pygit cat-file (-t|-s|-p) <object>",
		Examples:  []string{"pygit cat-file -p HEAD", "pygit cat-file -t abc1234"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCatFile(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "diff",
		Summary:   "Show diff between two commits",
		Usage:     "pygit diff [--stat] <commit1> <commit2>",
		Examples:  []string{"pygit diff HEAD~1 HEAD", "pygit diff --stat main dev"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runDiff(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "show",
		Summary:   "Show commit details and diff",
		Usage:     "pygit show [--stat|--html] [<commit>]",
		Examples:  []string{"pygit show", "pygit show --stat HEAD"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runShow(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "stash",
		Summary:   "Save, list, or restore uncommitted changes",
		Usage:     "pygit stash [push [-m <msg>]|list|pop]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runStash(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "status",
		Summary:   "Show working tree status",
		Usage:     "pygit status [-s|--porcelain]",
		Examples:  []string{"pygit status", "pygit status --porcelain"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runStatus(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "tag",
		Summary:   "List or create tags",
		Usage:     "pygit tag [-m <msg>] [<name> [<id>]]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runTag(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "pygit version",
		Run:     func([]string) int { printVersion(); return 0 },
	})

	// Determine which command will run so we can load the repo only when needed.
	if len(args) > 0 {
		cmd := app.Lookup(args[0])
		if cmd != nil && cmd.NeedsRepo {
			repoPath := os.Getenv("PYGIT_DIR")
			if repoPath == "" {
				repoPath = "."
			}
			var err error
			repo, err = gitcore.NewRepository(repoPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
				os.Exit(128)
			}
		}
	}

	os.Exit(app.Run(args, cw))
}

func printVersion() {
	fmt.Printf("pygit %s\n", version)
	fmt.Printf("  commit:     %s\n", commit)
	fmt.Printf("  built:      %s\n", buildDate)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
