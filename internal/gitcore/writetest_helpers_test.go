package gitcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newWriteTestRepo initializes a fresh, non-bare repository on disk (empty
// objects store, no refs, HEAD pointing at an unborn refs/heads/main) and
// opens it through NewRepository, exercising the same load path a real
// pygit invocation would use.
func newWriteTestRepo(t *testing.T) *Repository {
	t.Helper()

	workDir := t.TempDir()
	gitDir := filepath.Join(workDir, ".pygit")

	for _, dir := range []string{"objects", filepath.Join("refs", "heads"), filepath.Join("refs", "tags")} {
		if err := os.MkdirAll(filepath.Join(gitDir, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}

	repo, err := NewRepository(workDir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

// reopen re-reads the repository from disk, picking up objects/refs written
// directly to disk since r was opened (NewRepository snapshots its commit
// map once at construction).
func reopen(t *testing.T, r *Repository) *Repository {
	t.Helper()
	fresh, err := NewRepository(r.WorkDir())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return fresh
}

func testSignature(name, email string) Signature {
	return Signature{Name: name, Email: email, When: time.Unix(1700000000, 0).UTC()}
}
