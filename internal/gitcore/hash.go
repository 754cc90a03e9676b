package gitcore

import (
	"crypto/sha1" //nolint:gosec // G505: object IDs are content-addressed SHA-1 by design, not used for security
	"fmt"
)

// HashObject computes the object ID for a payload of the given type, using
// the same "<type> <len>\0<payload>" framing as the on-disk loose object
// format. It is the single source of truth for how an ID is derived from
// content: writers use it to name new objects, readers use it to verify
// that what they decompressed is what the name promised.
func HashObject(kind ObjectType, payload []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", kind.String(), len(payload))
	h := sha1.New() //nolint:gosec // G401: see G505 justification above
	h.Write([]byte(header))
	h.Write(payload)
	sum := h.Sum(nil)
	var b [20]byte
	copy(b[:], sum)
	id, err := NewHashFromBytes(b)
	if err != nil {
		// sha1.Sum always produces exactly 20 bytes; NewHashFromBytes can
		// only fail on malformed input, which this never produces.
		panic(fmt.Sprintf("gitcore: impossible hash construction failure: %v", err))
	}
	return id
}
