package gitcore

import (
	"bytes"
	"fmt"
	"time"
)

// WriteCommit serializes a commit object from its parts and writes it to the
// object store, returning the new commit's id. tree and parents must
// already exist in the store.
func (r *Repository) WriteCommit(tree Hash, parents []Hash, author, committer Signature, message string) (Hash, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", tree)
	for _, p := range parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(committer))
	buf.WriteByte('\n')
	buf.WriteString(message)
	if len(message) == 0 || message[len(message)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return r.WriteObject(CommitObject, buf.Bytes())
}

// WriteTag serializes an annotated tag object and writes it to the object store.
func (r *Repository) WriteTag(object Hash, objType ObjectType, name string, tagger Signature, message string) (Hash, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", object)
	fmt.Fprintf(&buf, "type %s\n", objType.String())
	fmt.Fprintf(&buf, "tag %s\n", name)
	fmt.Fprintf(&buf, "tagger %s\n", formatSignature(tagger))
	buf.WriteByte('\n')
	buf.WriteString(message)
	if len(message) == 0 || message[len(message)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return r.WriteObject(TagObject, buf.Bytes())
}

// NewSignatureNow builds a Signature stamped with the current time, in the
// "Name <email> unix tz" form the object store expects.
func NewSignatureNow(name, email string) Signature {
	return Signature{Name: name, Email: email, When: time.Now()}
}

// formatSignature renders a Signature back into Git's wire form.
func formatSignature(sig Signature) string {
	return fmt.Sprintf("%s <%s> %d %s", sig.Name, sig.Email, sig.When.Unix(), sig.When.Format("-0700"))
}
