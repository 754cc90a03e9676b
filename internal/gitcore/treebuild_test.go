package gitcore

import "testing"

func TestWriteTreeFromIndex_FlatAndNested(t *testing.T) {
	r := newWriteTestRepo(t)

	rootBlob, err := r.WriteBlob([]byte("root file\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	nestedBlob, err := r.WriteBlob([]byte("nested file\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	idx := NewIndex()
	idx.Stage("README.md", rootBlob, 0100644)
	idx.Stage("src/main.go", nestedBlob, 0100644)

	treeHash, err := r.WriteTreeFromIndex(idx)
	if err != nil {
		t.Fatalf("WriteTreeFromIndex: %v", err)
	}
	if !r.HasObject(treeHash) {
		t.Fatal("root tree object was not written to the object store")
	}

	files, err := flattenTree(r, treeHash, "")
	if err != nil {
		t.Fatalf("flattenTree: %v", err)
	}
	if files["README.md"] != rootBlob {
		t.Errorf("README.md = %s, want %s", files["README.md"], rootBlob)
	}
	if files["src/main.go"] != nestedBlob {
		t.Errorf("src/main.go = %s, want %s", files["src/main.go"], nestedBlob)
	}
	if len(files) != 2 {
		t.Errorf("flattenTree returned %d files, want 2: %v", len(files), files)
	}
}

func TestWriteTreeFromIndex_DeterministicAcrossInsertionOrder(t *testing.T) {
	r := newWriteTestRepo(t)
	blobA, _ := r.WriteBlob([]byte("a"))
	blobB, _ := r.WriteBlob([]byte("b"))

	idx1 := NewIndex()
	idx1.Stage("a.txt", blobA, 0100644)
	idx1.Stage("b.txt", blobB, 0100644)

	idx2 := NewIndex()
	idx2.Stage("b.txt", blobB, 0100644)
	idx2.Stage("a.txt", blobA, 0100644)

	tree1, err := r.WriteTreeFromIndex(idx1)
	if err != nil {
		t.Fatalf("WriteTreeFromIndex (1): %v", err)
	}
	tree2, err := r.WriteTreeFromIndex(idx2)
	if err != nil {
		t.Fatalf("WriteTreeFromIndex (2): %v", err)
	}
	if tree1 != tree2 {
		t.Errorf("tree hash depends on staging order: %s != %s", tree1, tree2)
	}
}

func TestSplitPath(t *testing.T) {
	cases := map[string][]string{
		"a.txt":     {"a.txt"},
		"dir/a.txt": {"dir", "a.txt"},
		"a/b/c.txt": {"a", "b", "c.txt"},
	}
	for path, want := range cases {
		got := splitPath(path)
		if len(got) != len(want) {
			t.Errorf("splitPath(%q) = %v, want %v", path, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("splitPath(%q) = %v, want %v", path, got, want)
				break
			}
		}
	}
}
