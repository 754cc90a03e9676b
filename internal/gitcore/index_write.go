package gitcore

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // G505: index checksum format, not a security boundary
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// NewIndex returns an empty, ready-to-populate Index.
func NewIndex() *Index {
	return &Index{Version: 2, ByPath: make(map[string]*IndexEntry)}
}

// Stage records path at stage 0 with the given blob hash and file mode,
// replacing any existing entry (at any stage) for that path. Adding a
// normal entry resolves a prior conflict for the same path, matching how
// `add` clears conflict stages once a file is re-staged.
func (idx *Index) Stage(path string, hash Hash, mode uint32) {
	idx.removePath(path)
	idx.Entries = append(idx.Entries, IndexEntry{
		Mode:  mode,
		Hash:  hash,
		Stage: 0,
		Path:  path,
	})
	idx.ByPath[path] = &idx.Entries[len(idx.Entries)-1]
	idx.reindex()
}

// StageConflict records the base/ours/theirs versions of path at merge
// stages 1, 2, and 3 respectively. A zero Hash for a given stage means that
// side deleted the path, and no entry is written for it.
func (idx *Index) StageConflict(path string, base, ours, theirs Hash, mode uint32) {
	idx.removePath(path)
	for stage, hash := range map[int]Hash{1: base, 2: ours, 3: theirs} {
		if hash == "" {
			continue
		}
		idx.Entries = append(idx.Entries, IndexEntry{
			Mode:  mode,
			Hash:  hash,
			Stage: stage,
			Path:  path,
		})
	}
	idx.reindex()
}

// Unstage removes every entry (all stages) recorded for path.
func (idx *Index) Unstage(path string) {
	idx.removePath(path)
	idx.reindex()
}

// HasConflicts reports whether any entry in the index sits above stage 0.
func (idx *Index) HasConflicts() bool {
	for _, e := range idx.Entries {
		if e.Stage != 0 {
			return true
		}
	}
	return false
}

// ConflictedPaths returns the distinct paths that have a stage > 0 entry.
func (idx *Index) ConflictedPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, e := range idx.Entries {
		if e.Stage != 0 && !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// removePath drops every entry (any stage) for path, without reindexing.
func (idx *Index) removePath(path string) {
	kept := idx.Entries[:0]
	for _, e := range idx.Entries {
		if e.Path != path {
			kept = append(kept, e)
		}
	}
	idx.Entries = kept
}

// reindex rebuilds ByPath from Entries, sorted by path as the on-disk
// format requires, and restores pointer stability into the slice.
func (idx *Index) reindex() {
	sort.Slice(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Path != idx.Entries[j].Path {
			return idx.Entries[i].Path < idx.Entries[j].Path
		}
		return idx.Entries[i].Stage < idx.Entries[j].Stage
	})
	idx.ByPath = make(map[string]*IndexEntry, len(idx.Entries))
	for i := range idx.Entries {
		if idx.Entries[i].Stage == 0 {
			idx.ByPath[idx.Entries[i].Path] = &idx.Entries[i]
		}
	}
}

// WriteIndex serializes idx back into the binary v2 format and atomically
// replaces gitDir's index file.
func WriteIndex(gitDir string, idx *Index) error {
	var body bytes.Buffer

	var header [12]byte
	copy(header[0:4], indexMagic)
	binary.BigEndian.PutUint32(header[4:8], 2)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(idx.Entries)))
	body.Write(header[:])

	for _, e := range idx.Entries {
		if err := writeIndexEntry(&body, e); err != nil {
			return fmt.Errorf("WriteIndex: %w", err)
		}
	}

	sum := sha1.Sum(body.Bytes()) //nolint:gosec // G401: index checksum format, not a security boundary
	body.Write(sum[:])

	path := filepath.Join(gitDir, "index")
	if err := atomicWriteFile(path, body.Bytes(), 0o644); err != nil {
		return fmt.Errorf("WriteIndex: %w", err)
	}
	return nil
}

func writeIndexEntry(buf *bytes.Buffer, e IndexEntry) error {
	var fixed [indexFixedEntrySize]byte
	binary.BigEndian.PutUint32(fixed[0:4], e.CtimeSec)
	binary.BigEndian.PutUint32(fixed[4:8], e.CtimeNsec)
	binary.BigEndian.PutUint32(fixed[8:12], e.MtimeSec)
	binary.BigEndian.PutUint32(fixed[12:16], e.MtimeNsec)
	binary.BigEndian.PutUint32(fixed[16:20], e.Device)
	binary.BigEndian.PutUint32(fixed[20:24], e.Inode)
	binary.BigEndian.PutUint32(fixed[24:28], e.Mode)
	binary.BigEndian.PutUint32(fixed[28:32], e.UID)
	binary.BigEndian.PutUint32(fixed[32:36], e.GID)
	binary.BigEndian.PutUint32(fixed[36:40], e.FileSize)

	hashBytes, err := hex.DecodeString(string(e.Hash))
	if err != nil || len(hashBytes) != 20 {
		return fmt.Errorf("invalid blob hash %q for path %q", e.Hash, e.Path)
	}
	copy(fixed[40:60], hashBytes)

	flags := uint16(len(e.Path))
	if flags > 0xFFF {
		flags = 0xFFF // name-length field saturates per the index format
	}
	flags |= uint16(e.Stage&0x3) << indexFlagStageShift
	binary.BigEndian.PutUint16(fixed[60:62], flags)

	buf.Write(fixed[:])
	buf.WriteString(e.Path)

	pathLen := len(e.Path)
	rawLen := indexFixedEntrySize + pathLen + 1
	paddedLen := (rawLen + indexEntryAlignment - 1) &^ (indexEntryAlignment - 1)
	padding := paddedLen - (indexFixedEntrySize + pathLen)
	buf.Write(make([]byte, padding))
	return nil
}

// fileModeFor returns the numeric index/tree mode for a filesystem entry,
// recognizing executable regular files and symlinks.
func fileModeFor(info os.FileInfo) uint32 {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return 0120000
	case info.Mode()&0o111 != 0:
		return 0100755
	default:
		return 0100644
	}
}
