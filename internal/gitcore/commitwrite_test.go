package gitcore

import "testing"

func TestWriteCommit_RoundTrip(t *testing.T) {
	r := newWriteTestRepo(t)
	tree, err := r.WriteTreeFromIndex(NewIndex())
	if err != nil {
		t.Fatalf("WriteTreeFromIndex: %v", err)
	}
	sig := testSignature("Grace Hopper", "grace@example.com")

	hash, err := r.WriteCommit(tree, nil, sig, sig, "initial commit")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	fresh := reopen(t, r)
	commit, err := fresh.GetCommit(hash)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if commit.Tree != tree {
		t.Errorf("Tree = %s, want %s", commit.Tree, tree)
	}
	if commit.Message != "initial commit" {
		t.Errorf("Message = %q, want %q", commit.Message, "initial commit")
	}
	if commit.Author.Name != "Grace Hopper" || commit.Author.Email != "grace@example.com" {
		t.Errorf("Author = %+v, want Grace Hopper <grace@example.com>", commit.Author)
	}
	if len(commit.Parents) != 0 {
		t.Errorf("Parents = %v, want none", commit.Parents)
	}
}

func TestWriteCommit_WithParents(t *testing.T) {
	r := newWriteTestRepo(t)
	tree, _ := r.WriteTreeFromIndex(NewIndex())
	sig := testSignature("Grace Hopper", "grace@example.com")

	parent, err := r.WriteCommit(tree, nil, sig, sig, "first")
	if err != nil {
		t.Fatalf("WriteCommit (parent): %v", err)
	}
	child, err := r.WriteCommit(tree, []Hash{parent}, sig, sig, "second")
	if err != nil {
		t.Fatalf("WriteCommit (child): %v", err)
	}

	fresh := reopen(t, r)
	commit, err := fresh.GetCommit(child)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if len(commit.Parents) != 1 || commit.Parents[0] != parent {
		t.Errorf("Parents = %v, want [%s]", commit.Parents, parent)
	}
}

func TestWriteCommit_TrailingNewlineNotDuplicated(t *testing.T) {
	r := newWriteTestRepo(t)
	tree, _ := r.WriteTreeFromIndex(NewIndex())
	sig := testSignature("A", "a@example.com")

	hash, err := r.WriteCommit(tree, nil, sig, sig, "already has newline\n")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	fresh := reopen(t, r)
	commit, err := fresh.GetCommit(hash)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if commit.Message != "already has newline" {
		t.Errorf("Message = %q, want %q", commit.Message, "already has newline")
	}
}

func TestWriteTag_RoundTrip(t *testing.T) {
	r := newWriteTestRepo(t)
	tree, _ := r.WriteTreeFromIndex(NewIndex())
	sig := testSignature("Tagger", "tagger@example.com")
	commitHash, err := r.WriteCommit(tree, nil, sig, sig, "tagged commit")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	tagHash, err := r.WriteTag(commitHash, CommitObject, "v1.0.0", sig, "release notes")
	if err != nil {
		t.Fatalf("WriteTag: %v", err)
	}

	fresh := reopen(t, r)
	tag, err := fresh.GetTag(tagHash)
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if tag.Object != commitHash {
		t.Errorf("Object = %s, want %s", tag.Object, commitHash)
	}
	if tag.Name != "v1.0.0" {
		t.Errorf("Name = %q, want v1.0.0", tag.Name)
	}
	if tag.Message != "release notes" {
		t.Errorf("Message = %q, want %q", tag.Message, "release notes")
	}
}

func TestNewSignatureNow(t *testing.T) {
	sig := NewSignatureNow("X", "x@example.com")
	if sig.Name != "X" || sig.Email != "x@example.com" {
		t.Errorf("NewSignatureNow = %+v, want Name=X Email=x@example.com", sig)
	}
	if sig.When.IsZero() {
		t.Error("NewSignatureNow left When unset")
	}
}
