package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rybkr/pygit/internal/config"
	"github.com/rybkr/pygit/internal/gitcore"
)

func runConfig(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 || len(args) > 2 {
		return exitUsage("usage: pygit config <key> [<value>]")
	}

	section, key, ok := splitConfigKey(args[0])
	if !ok {
		return exitUsage("invalid key: %s (expected section.key)", args[0])
	}

	path := filepath.Join(repo.GitDir(), "config")
	cfg, err := config.Load(path)
	if err != nil {
		return exitError(err)
	}

	if len(args) == 2 {
		cfg.Set(section, key, args[1])
		if err := cfg.Save(path); err != nil {
			return exitError(err)
		}
		return 0
	}

	value, present := cfg.Get(section, key)
	if !present {
		return exitError(gitcore.NewError(gitcore.ErrNotFound, "config", fmt.Errorf("key not set: %s", args[0])))
	}
	fmt.Println(value)
	return 0
}

func splitConfigKey(arg string) (section, key string, ok bool) {
	i := strings.LastIndex(arg, ".")
	if i <= 0 || i == len(arg)-1 {
		return "", "", false
	}
	return arg[:i], arg[i+1:], true
}
