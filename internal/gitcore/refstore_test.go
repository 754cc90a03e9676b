package gitcore

import "testing"

func TestUpdateAndCreateRef(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, err := r.WriteBlob([]byte("x"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	// Use the blob's hash as a stand-in commit id; UpdateRef doesn't validate
	// that the target resolves to a commit.
	if err := r.UpdateRef("refs/heads/feature", blob); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	fresh := reopen(t, r)
	if got := fresh.refs["refs/heads/feature"]; got != blob {
		t.Errorf("ref not persisted: got %s, want %s", got, blob)
	}

	if err := r.CreateRef("refs/heads/feature", blob); KindOf(err) != ErrRefExists {
		t.Errorf("CreateRef over existing ref: got %v, want ErrRefExists", err)
	}
}

func TestCreateRef_New(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, _ := r.WriteBlob([]byte("y"))
	if err := r.CreateRef("refs/heads/new-branch", blob); err != nil {
		t.Fatalf("CreateRef: %v", err)
	}
	if _, ok := r.refs["refs/heads/new-branch"]; !ok {
		t.Error("CreateRef did not register the ref in memory")
	}
}

func TestDeleteRef(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, _ := r.WriteBlob([]byte("z"))
	if err := r.UpdateRef("refs/heads/doomed", blob); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.DeleteRef("refs/heads/doomed"); err != nil {
		t.Fatalf("DeleteRef: %v", err)
	}
	if _, ok := r.refs["refs/heads/doomed"]; ok {
		t.Error("ref still present in memory after DeleteRef")
	}
	if err := r.DeleteRef("refs/heads/doomed"); KindOf(err) != ErrNotFound {
		t.Errorf("DeleteRef of already-deleted ref: got %v, want ErrNotFound", err)
	}
}

func TestValidateRefName(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"refs/heads/main", false},
		{"refs/heads/feature/sub", false},
		{"", true},
		{"refs/heads/../etc", true},
		{"refs/heads/.", true},
		{"refs/heads/foo.lock", true},
		{"refs heads main", true},
	}
	for _, c := range cases {
		err := validateRefName(c.name)
		if (err != nil) != c.wantErr {
			t.Errorf("validateRefName(%q) error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func TestUpdateSymbolicRefAndDetachHead(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, _ := r.WriteBlob([]byte("w"))
	if err := r.UpdateRef("refs/heads/main", blob); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateSymbolicRef("HEAD", "refs/heads/main"); err != nil {
		t.Fatalf("UpdateSymbolicRef: %v", err)
	}
	if r.headDetached {
		t.Error("HEAD reported detached after pointing at a branch")
	}
	if r.head != blob {
		t.Errorf("head = %s, want %s", r.head, blob)
	}

	if err := r.DetachHead(blob); err != nil {
		t.Fatalf("DetachHead: %v", err)
	}
	if !r.headDetached {
		t.Error("HEAD not reported detached after DetachHead")
	}
}

func TestResolveSymbolic(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, _ := r.WriteBlob([]byte("v"))
	if err := r.UpdateRef("refs/heads/main", blob); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateSymbolicRef("HEAD", "refs/heads/main"); err != nil {
		t.Fatalf("UpdateSymbolicRef: %v", err)
	}
	got, err := r.ResolveSymbolic("HEAD")
	if err != nil {
		t.Fatalf("ResolveSymbolic: %v", err)
	}
	if got != blob {
		t.Errorf("ResolveSymbolic(HEAD) = %s, want %s", got, blob)
	}
}

func TestListRefs(t *testing.T) {
	r := newWriteTestRepo(t)
	blob, _ := r.WriteBlob([]byte("u"))
	_ = r.UpdateRef("refs/heads/main", blob)
	_ = r.UpdateRef("refs/heads/dev", blob)
	_ = r.UpdateRef("refs/tags/v1", blob)

	heads := r.ListRefs("refs/heads/")
	if len(heads) != 2 || heads[0] != "refs/heads/dev" || heads[1] != "refs/heads/main" {
		t.Errorf("ListRefs(refs/heads/) = %v, want [refs/heads/dev refs/heads/main]", heads)
	}
}

func TestLockIndex(t *testing.T) {
	r := newWriteTestRepo(t)

	lock, err := r.LockIndex(false)
	if err != nil {
		t.Fatalf("LockIndex: %v", err)
	}
	if _, err := r.LockIndex(false); KindOf(err) != ErrLocked {
		t.Errorf("second LockIndex: got %v, want ErrLocked", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Releasing twice must be a no-op, not an error.
	if err := lock.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}

	lock2, err := r.LockIndex(false)
	if err != nil {
		t.Fatalf("LockIndex after release: %v", err)
	}
	_ = lock2.Release()
}

func TestLockIndex_Force(t *testing.T) {
	r := newWriteTestRepo(t)

	first, err := r.LockIndex(false)
	if err != nil {
		t.Fatalf("LockIndex: %v", err)
	}
	defer first.Release()

	// A forced acquisition removes the stale lock and succeeds.
	second, err := r.LockIndex(true)
	if err != nil {
		t.Fatalf("LockIndex(force=true): %v", err)
	}
	_ = second.Release()
}
