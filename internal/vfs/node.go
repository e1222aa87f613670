package vfs

import (
	"encoding/base64"
	"sort"
)

// Kind tells directories and files apart.
type Kind int

const (
	// KindDir marks a directory node
	KindDir Kind = iota
	// KindFile marks a file node
	KindFile
)

// String returns the record type name of the kind.
func (k Kind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// ParseKind maps a record type to a Kind. "dir" is a directory, anything
// else is a file.
func ParseKind(s string) Kind {
	if s == "dir" {
		return KindDir
	}
	return KindFile
}

// Node is a directory or a file in the tree. The set of implementations is
// closed: every Node is either a *Dir or a *File.
type Node interface {
	Name() string
	Kind() Kind
	sealed()
}

// Dir is a directory node owning its children.
type Dir struct {
	name     string
	children map[string]Node
}

func newDir(name string) *Dir {
	return &Dir{name: name, children: make(map[string]Node)}
}

// Name returns the local segment name.
func (d *Dir) Name() string { return d.name }

// Kind returns KindDir.
func (d *Dir) Kind() Kind { return KindDir }

func (d *Dir) sealed() {}

// Child returns the direct child with the given name.
func (d *Dir) Child(name string) (Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// Names returns the names of all direct children in lexicographic order.
func (d *Dir) Names() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of direct children.
func (d *Dir) Len() int { return len(d.children) }

// File is a file node holding opaque content.
type File struct {
	name    string
	content []byte
}

// Name returns the local segment name.
func (f *File) Name() string { return f.name }

// Kind returns KindFile.
func (f *File) Kind() Kind { return KindFile }

func (f *File) sealed() {}

// Content returns a copy of the file content.
func (f *File) Content() []byte {
	out := make([]byte, len(f.content))
	copy(out, f.content)
	return out
}

// Size returns the content length in bytes.
func (f *File) Size() int { return len(f.content) }

func setName(n Node, name string) {
	switch n := n.(type) {
	case *Dir:
		n.name = name
	case *File:
		n.name = name
	}
}

// DecodeContent decodes base64 record content. Content that is not valid
// base64 is kept verbatim.
func DecodeContent(s string) []byte {
	if s == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		treeLogger.Debug("Content is not base64, storing raw (%d bytes): %v", len(s), err)
		return []byte(s)
	}
	return data
}
