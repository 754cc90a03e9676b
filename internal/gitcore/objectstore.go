package gitcore

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"path/filepath"
)

// objectPath returns the on-disk loose-object location for id, fan-out by
// the first two hex characters (the same layout readLooseObjectRaw reads).
func (r *Repository) objectPath(id Hash) string {
	s := string(id)
	return filepath.Join(r.gitDir, "objects", s[:2], s[2:])
}

// HasObject reports whether id already exists in the loose object store.
func (r *Repository) HasObject(id Hash) bool {
	_, err := os.Stat(r.objectPath(id))
	return err == nil
}

// WriteObject computes the id of payload under kind, and stores it
// zlib-compressed at objects/<aa>/<38hex> if not already present. Writing is
// idempotent: two writers racing to store the same content converge on the
// same bytes at the same path, and atomicWriteFile makes the final rename
// the only externally visible step.
func (r *Repository) WriteObject(kind ObjectType, payload []byte) (Hash, error) {
	id := HashObject(kind, payload)
	path := r.objectPath(id)

	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	header := fmt.Sprintf("%s %d\x00", kind.String(), len(payload))

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(header)); err != nil {
		return "", fmt.Errorf("write object %s: %w", id, err)
	}
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("write object %s: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("write object %s: %w", id, err)
	}

	if err := atomicWriteFile(path, buf.Bytes(), 0o444); err != nil {
		return "", fmt.Errorf("write object %s: %w", id, err)
	}
	return id, nil
}

// WriteBlob stores content as a blob object and returns its id.
func (r *Repository) WriteBlob(content []byte) (Hash, error) {
	return r.WriteObject(BlobObject, content)
}
