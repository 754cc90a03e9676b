package gitcore

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// treeNode is an in-memory staging structure used to fold a flat list of
// index entries into the nested tree objects Git actually stores: one tree
// object per directory, referencing either blob entries or child trees.
type treeNode struct {
	blobs    map[string]IndexEntry
	children map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{blobs: make(map[string]IndexEntry), children: make(map[string]*treeNode)}
}

// WriteTreeFromIndex builds and writes the tree object graph corresponding
// to the stage-0 entries of idx, returning the hash of the root tree. This
// is the inverse of flattenTree: it turns the flat, path-keyed index back
// into Git's nested tree representation.
func (r *Repository) WriteTreeFromIndex(idx *Index) (Hash, error) {
	root := newTreeNode()
	for _, e := range idx.Entries {
		if e.Stage != 0 {
			continue
		}
		insertEntry(root, splitPath(e.Path), e)
	}
	return r.writeTreeNode(root)
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}

func insertEntry(node *treeNode, segments []string, e IndexEntry) {
	if len(segments) == 1 {
		node.blobs[segments[0]] = e
		return
	}
	child, ok := node.children[segments[0]]
	if !ok {
		child = newTreeNode()
		node.children[segments[0]] = child
	}
	insertEntry(child, segments[1:], e)
}

func (r *Repository) writeTreeNode(node *treeNode) (Hash, error) {
	type namedEntry struct {
		name string
		mode string
		id   Hash
	}
	entries := make([]namedEntry, 0, len(node.blobs)+len(node.children))

	for name, e := range node.blobs {
		entries = append(entries, namedEntry{name: name, mode: strconv.FormatUint(uint64(e.Mode), 8), id: e.Hash})
	}
	for name, child := range node.children {
		childHash, err := r.writeTreeNode(child)
		if err != nil {
			return "", err
		}
		entries = append(entries, namedEntry{name: name, mode: "40000", id: childHash})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s %s", e.mode, e.name)
		buf.WriteByte(0)
		idBytes, err := hexToBytes20(e.id)
		if err != nil {
			return "", fmt.Errorf("writeTreeNode: %w", err)
		}
		buf.Write(idBytes[:])
	}

	return r.WriteObject(TreeObject, buf.Bytes())
}

func hexToBytes20(id Hash) ([20]byte, error) {
	var out [20]byte
	decoded, err := hex.DecodeString(string(id))
	if err != nil || len(decoded) != 20 {
		return out, fmt.Errorf("invalid object id %q", id)
	}
	copy(out[:], decoded)
	return out, nil
}
