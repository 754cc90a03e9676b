package gitcore

import "testing"

func TestHashObject_KnownBlob(t *testing.T) {
	// git hash-object for an empty blob is the well-known e69de29...
	got := HashObject(BlobObject, []byte(""))
	want := Hash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	if got != want {
		t.Errorf("HashObject(blob, \"\") = %s, want %s", got, want)
	}
}

func TestHashObject_Deterministic(t *testing.T) {
	payload := []byte("hello world\n")
	a := HashObject(BlobObject, payload)
	b := HashObject(BlobObject, payload)
	if a != b {
		t.Errorf("HashObject is not deterministic: %s != %s", a, b)
	}
}

func TestHashObject_TypeAffectsHash(t *testing.T) {
	payload := []byte("tree\n")
	blobHash := HashObject(BlobObject, payload)
	treeHash := HashObject(TreeObject, payload)
	if blobHash == treeHash {
		t.Error("HashObject should incorporate the object type into the digest")
	}
}

func TestHashObject_LengthInFraming(t *testing.T) {
	// Content with an embedded NUL still hashes uniquely vs. truncated content,
	// since the framing carries an explicit length rather than relying on NUL.
	a := HashObject(BlobObject, []byte("ab"))
	b := HashObject(BlobObject, []byte("a"))
	if a == b {
		t.Error("HashObject must distinguish payloads of different length")
	}
}
