package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBranch is the branch HEAD points at in a freshly initialized
// repository, before the first commit gives it a target.
const DefaultBranch = "main"

const unbornDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"

// InitRepository creates a new repository rooted at workDir: a .pygit
// directory with an empty object store, empty refs/heads and refs/tags,
// and HEAD pointing at the unborn refs/heads/main. It fails with
// ErrRefExists if a .pygit directory is already present.
func InitRepository(workDir string) error {
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	gitDir := filepath.Join(absWorkDir, ".pygit")

	if _, err := os.Stat(gitDir); err == nil {
		return NewError(ErrRefExists, "init", fmt.Errorf("repository already exists: %s", gitDir))
	}

	if err := os.MkdirAll(absWorkDir, 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	for _, dir := range []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	head := fmt.Sprintf("ref: refs/heads/%s\n", DefaultBranch)
	if err := atomicWriteFile(filepath.Join(gitDir, "HEAD"), []byte(head), 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if err := atomicWriteFile(filepath.Join(gitDir, "description"), []byte(unbornDescription), 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	config := "[core]\n\trepositoryformatversion = 0\n\tbare = false\n"
	if err := atomicWriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	empty := NewIndex()
	if err := WriteIndex(gitDir, empty); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	return nil
}
