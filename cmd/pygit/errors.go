package main

import (
	"fmt"
	"os"
)

// exitUsage reports a malformed invocation and returns spec.md's usage-error
// exit code.
func exitUsage(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 2
}

// exitError reports any other user-visible operation failure (bad revision,
// conflict, dirty tree, locked index, ...) and returns exit code 1.
func exitError(err error) int {
	fmt.Fprintf(os.Stderr, "pygit: %v\n", err)
	return 1
}
