// Package gitcore provides a pure Go implementation of the object database,
// reference machinery, index, and merge engine of a content-addressed
// version-control system, plus read/write access to a loose-object store.
package gitcore

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	objectTypeCommit = "commit"
	objectTypeTree   = "tree"
	objectTypeBlob   = "blob"
	objectTypeTag    = "tag"
)

// loadObjects loads all objects reachable from every loaded ref into the
// repository's commit/tag caches. It assumes refs have already been loaded.
func (r *Repository) loadObjects() {
	r.commitMap = make(map[Hash]*Commit)
	visited := make(map[Hash]bool)
	for _, ref := range r.refs {
		r.traverseObjects(ref, visited)
	}
}

// traverseObjects recursively loads all objects beginning from the provided
// reference, using the visited map to avoid processing the same object
// multiple times.
func (r *Repository) traverseObjects(ref Hash, visited map[Hash]bool) {
	if visited[ref] {
		return
	}
	visited[ref] = true

	object, err := r.readObject(ref)
	if err != nil {
		// Log the error but continue with other potentially valid objects.
		log.Printf("error traversing object: %v", err)
		return
	}

	switch object.Type() {
	case CommitObject:
		commit := object.(*Commit)
		r.commits = append(r.commits, commit)
		r.commitMap[commit.ID] = commit
		for _, parent := range commit.Parents {
			r.traverseObjects(parent, visited)
		}
	case TagObject:
		tag := object.(*Tag)
		r.tags = append(r.tags, tag)
		r.traverseObjects(tag.Object, visited)
	default:
		// Unrecognized type, log the error but continue on.
		log.Printf("unsupported object type: %d", object.Type())
	}
}

// readObject parses an object from its hash, reading it from the loose
// object store.
func (r *Repository) readObject(id Hash) (Object, error) {
	header, content, err := r.readLooseObjectRaw(id)
	if err != nil {
		return nil, fmt.Errorf("object not found: %s: %w", id, err)
	}

	switch {
	case strings.HasPrefix(header, objectTypeCommit):
		return parseCommitBody(content, id)
	case strings.HasPrefix(header, objectTypeTag):
		return parseTagBody(content, id)
	case strings.HasPrefix(header, objectTypeTree):
		return parseTreeBody(content, id)
	default:
		return nil, fmt.Errorf("unrecognized loose object type: %q for %s", header, id)
	}
}

// readObjectData reads any object and returns its raw payload and type byte.
func (r *Repository) readObjectData(id Hash) ([]byte, byte, error) {
	header, content, err := r.readLooseObjectRaw(id)
	if err != nil {
		return nil, 0, fmt.Errorf("object not found: %s: %w", id, err)
	}
	typeNum, err := objectTypeFromHeader(header)
	if err != nil {
		return nil, 0, err
	}
	return content, typeNum, nil
}

// readLooseObjectRaw reads a loose object from disk and returns its header
// and content, verifying that the recomputed digest of the decompressed
// bytes matches id (spec.md Invariant 2: integrity).
func (r *Repository) readLooseObjectRaw(id Hash) (header string, content []byte, err error) {
	objectPath := filepath.Join(r.gitDir, "objects", string(id)[:2], string(id)[2:])

	//nolint:gosec // G304: Object paths are controlled by git repository structure
	file, err := os.Open(objectPath)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.Printf("failed to close loose object file: %v", cerr)
		}
	}()

	data, err := readCompressedData(file)
	if err != nil {
		return "", nil, fmt.Errorf("invalid compressed data: %w", err)
	}

	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return "", nil, fmt.Errorf("invalid object format")
	}

	header, content = string(data[:nullIdx]), data[nullIdx+1:]

	kindStr, _, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("invalid object header: %q", header)
	}
	if got := HashObject(StrToObjectType(kindStr), content); got != id {
		return "", nil, fmt.Errorf("object %s failed digest verification (got %s)", id, got)
	}

	return header, content, nil
}

// objectTypeFromHeader converts a Git object header string to its numeric
// ObjectType byte.
func objectTypeFromHeader(header string) (byte, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid header: %s", header)
	}

	switch parts[0] {
	case objectTypeCommit:
		return byte(CommitObject), nil
	case objectTypeTree:
		return byte(TreeObject), nil
	case objectTypeBlob:
		return byte(BlobObject), nil
	case objectTypeTag:
		return byte(TagObject), nil
	default:
		return 0, fmt.Errorf("unsupported object type: %s", parts[0])
	}
}

// parseCommitBody parses the body of a commit object into a Commit struct.
func parseCommitBody(body []byte, id Hash) (*Commit, error) {
	commit := &Commit{ID: id}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	inMessage := false
	var messageLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if inMessage {
			messageLines = append(messageLines, line)
			continue
		}
		if line == "" {
			inMessage = true
			continue
		}

		if strings.HasPrefix(line, "parent ") {
			parent, err := NewHash(strings.TrimPrefix(line, "parent "))
			if err != nil {
				return nil, fmt.Errorf("invalid parent hash: %w", err)
			}
			commit.Parents = append(commit.Parents, parent)
		} else if strings.HasPrefix(line, "tree ") {
			tree, err := NewHash(strings.TrimPrefix(line, "tree "))
			if err != nil {
				return nil, fmt.Errorf("invalid tree hash: %w", err)
			}
			commit.Tree = tree
		} else if strings.HasPrefix(line, "author ") {
			authorLine := strings.TrimPrefix(line, "author ")
			author, err := NewSignature(authorLine)
			if err != nil {
				return nil, fmt.Errorf("invalid author signature: %w", err)
			}
			commit.Author = author
		} else if strings.HasPrefix(line, "committer ") {
			committerLine := strings.TrimPrefix(line, "committer ")
			committer, err := NewSignature(committerLine)
			if err != nil {
				return nil, fmt.Errorf("invalid committer signature: %w", err)
			}
			commit.Committer = committer
		}
	}

	commit.Message = strings.Join(messageLines, "\n")
	commit.Message = strings.TrimSpace(commit.Message)

	return commit, nil
}

// parseTagBody parses the body of a tag object into a Tag struct.
func parseTagBody(body []byte, id Hash) (*Tag, error) {
	tag := &Tag{ID: id}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	inMessage := false
	var messageLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if inMessage {
			messageLines = append(messageLines, line)
			continue
		}
		if line == "" {
			inMessage = true
			continue
		}

		if strings.HasPrefix(line, "object ") {
			objectHash, err := NewHash(strings.TrimPrefix(line, "object "))
			if err != nil {
				return nil, fmt.Errorf("invalid object hash: %w", err)
			}
			tag.Object = objectHash
		} else if strings.HasPrefix(line, "type ") {
			typeStr := strings.TrimPrefix(line, "type ")
			tag.ObjType = StrToObjectType(typeStr)
		} else if strings.HasPrefix(line, "tag ") {
			tag.Name = strings.TrimPrefix(line, "tag ")
		} else if strings.HasPrefix(line, "tagger ") {
			taggerLine := strings.TrimPrefix(line, "tagger ")
			tagger, err := NewSignature(taggerLine)
			if err != nil {
				return nil, fmt.Errorf("invalid tagger: %w", err)
			}
			tag.Tagger = tagger
		}
	}

	tag.Message = strings.Join(messageLines, "\n")
	tag.Message = strings.TrimSpace(tag.Message)

	return tag, nil
}

// parseTreeBody parses the body of a tree object into a Tree struct.
func parseTreeBody(body []byte, id Hash) (*Tree, error) {
	tree := &Tree{
		ID:      id,
		Entries: make([]TreeEntry, 0),
	}
	reader := bytes.NewReader(body)

	for {
		var modeBuilder strings.Builder
		for {
			b, err := reader.ReadByte()
			if err == io.EOF {
				return tree, nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read mode: %w", err)
			}
			if b == ' ' {
				break
			}
			modeBuilder.WriteByte(b)
		}
		mode := modeBuilder.String()

		var nameBuilder strings.Builder
		for {
			b, err := reader.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("failed to read name: %w", err)
			}
			if b == 0 {
				break
			}
			nameBuilder.WriteByte(b)
		}
		name := nameBuilder.String()

		var hashBytes [20]byte
		if _, err := io.ReadFull(reader, hashBytes[:]); err != nil {
			return nil, fmt.Errorf("failed to read hash: %w", err)
		}

		hash, err := NewHashFromBytes(hashBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid hash in tree entry: %w", err)
		}

		// Determine type based on mode:
		//  - 100644/100755 = blob (file)
		//  - 040000 = tree (directory)
		//  - 120000/160000 = commit (submodule)
		var entryType string
		if strings.HasPrefix(mode, "100") {
			entryType = "blob"
		} else if mode == "040000" || mode == "40000" {
			entryType = "tree"
		} else if mode == "120000" || mode == "160000" {
			entryType = "commit"
		} else {
			entryType = "unknown"
		}

		tree.Entries = append(tree.Entries, TreeEntry{
			ID:   hash,
			Name: name,
			Mode: mode,
			Type: entryType,
		})
	}
}

// maxDecompressedSize caps the size of any single decompressed object.
// Objects larger than this are rejected to prevent zip-bomb style attacks.
const maxDecompressedSize = 256 * 1024 * 1024 // 256MB

// readCompressedData reads and decompresses zlib-compressed data from the
// given reader. Returns an error if the decompressed output exceeds
// maxDecompressedSize.
func readCompressedData(r io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			log.Printf("failed to close zlib reader: %v", err)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(zr, maxDecompressedSize+1)); err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	if buf.Len() > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed object exceeds maximum allowed size (%d bytes)", maxDecompressedSize)
	}

	return buf.Bytes(), nil
}
