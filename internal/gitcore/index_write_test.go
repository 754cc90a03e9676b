package gitcore

import (
	"path/filepath"
	"testing"
)

func TestIndexStageAndReindex(t *testing.T) {
	idx := NewIndex()
	idx.Stage("b.txt", Hash("1111111111111111111111111111111111111111"), 0100644)
	idx.Stage("a.txt", Hash("2222222222222222222222222222222222222222"), 0100644)

	if len(idx.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(idx.Entries))
	}
	// reindex sorts entries by path.
	if idx.Entries[0].Path != "a.txt" || idx.Entries[1].Path != "b.txt" {
		t.Errorf("entries not sorted by path: %+v", idx.Entries)
	}
	if idx.ByPath["a.txt"].Hash != Hash("2222222222222222222222222222222222222222") {
		t.Error("ByPath lookup out of sync with Entries")
	}
}

func TestIndexStage_ReplacesExisting(t *testing.T) {
	idx := NewIndex()
	idx.Stage("f.txt", Hash("1111111111111111111111111111111111111111"), 0100644)
	idx.Stage("f.txt", Hash("3333333333333333333333333333333333333333"), 0100755)

	if len(idx.Entries) != 1 {
		t.Fatalf("re-staging same path created %d entries, want 1", len(idx.Entries))
	}
	if idx.Entries[0].Hash != Hash("3333333333333333333333333333333333333333") {
		t.Error("re-staging did not update hash")
	}
	if idx.Entries[0].Mode != 0100755 {
		t.Error("re-staging did not update mode")
	}
}

func TestIndexStageConflictAndClear(t *testing.T) {
	idx := NewIndex()
	base := Hash("1111111111111111111111111111111111111111")
	ours := Hash("2222222222222222222222222222222222222222")
	theirs := Hash("3333333333333333333333333333333333333333")
	idx.StageConflict("c.txt", base, ours, theirs, 0100644)

	if !idx.HasConflicts() {
		t.Fatal("HasConflicts = false after StageConflict")
	}
	paths := idx.ConflictedPaths()
	if len(paths) != 1 || paths[0] != "c.txt" {
		t.Errorf("ConflictedPaths = %v, want [c.txt]", paths)
	}
	// stage-0 ByPath must not have an entry for a fully conflicted path.
	if _, ok := idx.ByPath["c.txt"]; ok {
		t.Error("ByPath has a stage-0 entry for a path only staged as a conflict")
	}

	// Re-staging resolves the conflict.
	idx.Stage("c.txt", ours, 0100644)
	if idx.HasConflicts() {
		t.Error("HasConflicts = true after re-staging a conflicted path")
	}
}

func TestIndexStageConflict_SkipsEmptyHash(t *testing.T) {
	idx := NewIndex()
	ours := Hash("2222222222222222222222222222222222222222")
	// Base missing (added on both sides), theirs present.
	idx.StageConflict("new.txt", "", ours, Hash("3333333333333333333333333333333333333333"), 0100644)

	stages := map[int]bool{}
	for _, e := range idx.Entries {
		if e.Path == "new.txt" {
			stages[e.Stage] = true
		}
	}
	if stages[1] {
		t.Error("StageConflict wrote a stage-1 entry despite an empty base hash")
	}
	if !stages[2] || !stages[3] {
		t.Error("StageConflict should still write stage-2 and stage-3 entries")
	}
}

func TestIndexUnstage(t *testing.T) {
	idx := NewIndex()
	idx.Stage("gone.txt", Hash("1111111111111111111111111111111111111111"), 0100644)
	idx.Unstage("gone.txt")
	if len(idx.Entries) != 0 {
		t.Errorf("Unstage left %d entries, want 0", len(idx.Entries))
	}
	if _, ok := idx.ByPath["gone.txt"]; ok {
		t.Error("ByPath still has entry after Unstage")
	}
}

func TestWriteIndexAndReadIndexRoundTrip(t *testing.T) {
	r := newWriteTestRepo(t)

	idx := NewIndex()
	idx.Stage("dir/a.txt", Hash("1111111111111111111111111111111111111111"), 0100644)
	idx.Stage("dir/b.txt", Hash("2222222222222222222222222222222222222222"), 0100755)
	idx.Stage("c.txt", Hash("3333333333333333333333333333333333333333"), 0100644)

	if err := WriteIndex(r.gitDir, idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}

	got, err := ReadIndex(r.gitDir)
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("ReadIndex returned %d entries, want 3", len(got.Entries))
	}
	for _, want := range idx.Entries {
		e, ok := got.ByPath[want.Path]
		if !ok {
			t.Errorf("missing entry for %s after round trip", want.Path)
			continue
		}
		if e.Hash != want.Hash {
			t.Errorf("%s: hash = %s, want %s", want.Path, e.Hash, want.Hash)
		}
		if e.Mode != want.Mode {
			t.Errorf("%s: mode = %o, want %o", want.Path, e.Mode, want.Mode)
		}
	}
}

func TestWriteIndex_PathAtGitDir(t *testing.T) {
	r := newWriteTestRepo(t)
	idx := NewIndex()
	idx.Stage("only.txt", Hash("1111111111111111111111111111111111111111"), 0100644)
	if err := WriteIndex(r.gitDir, idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	if _, err := ReadIndex(filepath.Dir(filepath.Join(r.gitDir, "index"))); err != nil {
		t.Fatalf("index file not found where expected: %v", err)
	}
}
