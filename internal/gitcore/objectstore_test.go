package gitcore

import "testing"

func TestWriteObject_RoundTrip(t *testing.T) {
	r := newWriteTestRepo(t)

	payload := []byte("package main\n")
	id, err := r.WriteObject(BlobObject, payload)
	if err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	if !r.HasObject(id) {
		t.Fatalf("HasObject(%s) = false after WriteObject", id)
	}

	content, kind, err := r.readObjectData(id)
	if err != nil {
		t.Fatalf("readObjectData: %v", err)
	}
	if kind != byte(BlobObject) {
		t.Errorf("kind = %d, want %d", kind, BlobObject)
	}
	if string(content) != string(payload) {
		t.Errorf("content = %q, want %q", content, payload)
	}
}

func TestWriteObject_Idempotent(t *testing.T) {
	r := newWriteTestRepo(t)

	payload := []byte("same content\n")
	id1, err := r.WriteObject(BlobObject, payload)
	if err != nil {
		t.Fatalf("WriteObject (1st): %v", err)
	}
	id2, err := r.WriteObject(BlobObject, payload)
	if err != nil {
		t.Fatalf("WriteObject (2nd): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("writing identical content twice produced different ids: %s vs %s", id1, id2)
	}
}

func TestWriteBlob(t *testing.T) {
	r := newWriteTestRepo(t)

	id, err := r.WriteBlob([]byte("hello\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	got, err := r.GetBlob(id)
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(got) != "hello\n" {
		t.Errorf("GetBlob = %q, want %q", got, "hello\n")
	}
}

func TestHasObject_Missing(t *testing.T) {
	r := newWriteTestRepo(t)
	if r.HasObject(Hash("0000000000000000000000000000000000000a")) {
		t.Error("HasObject reported true for an id never written")
	}
}
