package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// maxSymbolicHops bounds how many "ref: " indirections ResolveRef will
// follow before giving up, so a ref cycle (accidental or adversarial) fails
// fast instead of looping forever.
const maxSymbolicHops = 8

var refNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/._-]*$`)

// validateRefName rejects ref names that are empty, absolute, contain ".."
// segments, or use characters Git itself forbids in refs.
func validateRefName(name string) error {
	if name == "" {
		return fmt.Errorf("empty ref name")
	}
	if !refNameRe.MatchString(name) {
		return fmt.Errorf("invalid ref name: %q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid ref name component in %q", name)
		}
	}
	if strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("invalid ref name: %q", name)
	}
	return nil
}

// UpdateRef writes hash directly into refs/heads/<name> (or any ref path
// under gitDir), creating it if absent. The write is atomic: readers never
// observe a half-written ref file.
func (r *Repository) UpdateRef(refName string, hash Hash) error {
	if err := validateRefName(refName); err != nil {
		return NewError(ErrBadRevision, "update ref", err)
	}
	path := filepath.Join(r.gitDir, refName)
	if err := atomicWriteFile(path, []byte(string(hash)+"\n"), 0o644); err != nil {
		return fmt.Errorf("update ref %s: %w", refName, err)
	}

	r.mu.Lock()
	r.refs[refName] = hash
	r.mu.Unlock()
	return nil
}

// CreateRef is like UpdateRef but fails with ErrRefExists if refName is
// already present, matching the "branch create" / "tag create" contract
// that must not silently clobber an existing ref.
func (r *Repository) CreateRef(refName string, hash Hash) error {
	r.mu.RLock()
	_, exists := r.refs[refName]
	r.mu.RUnlock()
	if exists {
		return NewError(ErrRefExists, "create ref", fmt.Errorf("ref already exists: %s", refName))
	}
	return r.UpdateRef(refName, hash)
}

// DeleteRef removes a ref file and its in-memory entry.
func (r *Repository) DeleteRef(refName string) error {
	path := filepath.Join(r.gitDir, refName)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return NewError(ErrNotFound, "delete ref", fmt.Errorf("no such ref: %s", refName))
		}
		return fmt.Errorf("delete ref %s: %w", refName, err)
	}

	r.mu.Lock()
	delete(r.refs, refName)
	r.mu.Unlock()
	return nil
}

// UpdateSymbolicRef points a symbolic ref (typically HEAD) at targetRef,
// writing the "ref: <targetRef>" indirection form.
func (r *Repository) UpdateSymbolicRef(name, targetRef string) error {
	path := filepath.Join(r.gitDir, name)
	content := fmt.Sprintf("ref: %s\n", targetRef)
	if err := atomicWriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("update symbolic ref %s: %w", name, err)
	}

	if name == "HEAD" {
		r.mu.Lock()
		r.headRef = targetRef
		r.headDetached = false
		if hash, ok := r.refs[targetRef]; ok {
			r.head = hash
		} else {
			r.head = ""
		}
		r.mu.Unlock()
	}
	return nil
}

// DetachHead points HEAD directly at hash, leaving symbolic tracking behind.
func (r *Repository) DetachHead(hash Hash) error {
	path := filepath.Join(r.gitDir, "HEAD")
	if err := atomicWriteFile(path, []byte(string(hash)+"\n"), 0o644); err != nil {
		return fmt.Errorf("detach HEAD: %w", err)
	}

	r.mu.Lock()
	r.head = hash
	r.headRef = ""
	r.headDetached = true
	r.mu.Unlock()
	return nil
}

// ResolveSymbolic follows "ref: " indirections starting at refName, up to
// maxSymbolicHops, and returns the final hash it points to.
func (r *Repository) ResolveSymbolic(refName string) (Hash, error) {
	current := refName
	for i := 0; i < maxSymbolicHops; i++ {
		path := filepath.Join(r.gitDir, current)
		//nolint:gosec // G304: ref paths are controlled by repository structure
		content, err := os.ReadFile(path)
		if err != nil {
			return "", NewError(ErrNotFound, "resolve ref", err)
		}
		line := strings.TrimSpace(string(content))
		if rest, ok := strings.CutPrefix(line, "ref: "); ok {
			current = rest
			continue
		}
		return NewHash(line)
	}
	return "", NewError(ErrCorrupt, "resolve ref", fmt.Errorf("too many symbolic ref hops starting at %s", refName))
}

// ListRefs returns every loaded ref name matching the given prefix
// (e.g. "refs/heads/" or "refs/tags/"), sorted lexically.
func (r *Repository) ListRefs(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.refs))
	for name := range r.refs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
