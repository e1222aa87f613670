package vfs

import (
	"errors"
	"strings"

	"vfsterm/internal/logging"
)

var (
	treeLogger = logging.GetLogger().WithPrefix("vfs")
)

// Tree is an in-memory directory tree. Every node except the root is owned
// by exactly one parent directory. A Tree is not safe for concurrent
// mutation.
type Tree struct {
	root *Dir
}

// NewTree returns a tree holding only the root directory.
func NewTree() *Tree {
	return &Tree{root: newDir(Root)}
}

// Root returns the root directory.
func (t *Tree) Root() *Dir {
	return t.root
}

// walk follows parts from the root. Walking through a file fails.
func (t *Tree) walk(op string, parts []string) (Node, error) {
	var cur Node = t.root
	for _, part := range parts {
		dir, ok := cur.(*Dir)
		if !ok {
			return nil, newError(op, Join(parts...), ErrPathNotFound)
		}
		child, ok := dir.children[part]
		if !ok {
			return nil, newError(op, Join(parts...), ErrPathNotFound)
		}
		cur = child
	}
	return cur, nil
}

// ensureDir walks parts from the root, creating missing directories.
func (t *Tree) ensureDir(op string, parts []string) (*Dir, error) {
	cur := t.root
	for i, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			treeLogger.Trace("Creating intermediate directory %q", Join(parts[:i+1]...))
			created := newDir(part)
			cur.children[part] = created
			cur = created
			continue
		}
		switch child := child.(type) {
		case *Dir:
			cur = child
		case *File:
			return nil, newError(op, Join(parts[:i+1]...), ErrNotADirectory)
		}
	}
	return cur, nil
}

// Resolve turns input into an absolute path relative to cwd like the
// package level Resolve, except that a ".." following an existing file
// fails with ErrPathNotFound instead of stepping back out of the file. The
// error path is the input up to and including the offending "..". The
// lexical resolution is returned either way.
func (t *Tree) Resolve(cwd, input string) (string, error) {
	resolved := Resolve(cwd, input)

	raw := input
	if !strings.HasPrefix(input, Separator) {
		raw = strings.TrimSuffix(Clean(cwd), Separator) + Separator + input
	}

	var parts, seen []string
	for _, seg := range strings.Split(raw, Separator) {
		if seg == "" {
			continue
		}
		seen = append(seen, seg)
		switch seg {
		case ".":
		case "..":
			if len(parts) == 0 {
				continue
			}
			if node, err := t.walk(OpLookup, parts); err == nil && node.Kind() == KindFile {
				return resolved, newError(OpLookup, Separator+strings.Join(seen, Separator), ErrPathNotFound)
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, seg)
		}
	}
	return resolved, nil
}

// GetNode returns the node at the absolute path p.
func (t *Tree) GetNode(p string) (Node, error) {
	return t.walk(OpLookup, Split(p))
}

// GetDir returns the directory at p.
func (t *Tree) GetDir(p string) (*Dir, error) {
	node, err := t.GetNode(p)
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *Dir:
		return n, nil
	case *File:
		return nil, newError(OpLookup, Clean(p), ErrNotADirectory)
	}
	return nil, newError(OpLookup, Clean(p), ErrPathNotFound)
}

// List returns the sorted child names of the directory at p.
func (t *Tree) List(p string) ([]string, error) {
	node, err := t.walk(OpList, Split(p))
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *Dir:
		return n.Names(), nil
	case *File:
		return nil, newError(OpList, Clean(p), ErrNotADirectory)
	}
	return nil, newError(OpList, Clean(p), ErrPathNotFound)
}

// ReadFile returns a copy of the content of the file at p.
func (t *Tree) ReadFile(p string) ([]byte, error) {
	node, err := t.walk(OpRead, Split(p))
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *File:
		return n.Content(), nil
	case *Dir:
		return nil, newError(OpRead, Clean(p), ErrIsADirectory)
	}
	return nil, newError(OpRead, Clean(p), ErrPathNotFound)
}

// MakeFile creates an empty file at p, creating missing parent
// directories. An existing file is truncated; an existing directory is left
// alone and reported with ErrIsADirectory.
func (t *Tree) MakeFile(p string) error {
	parts := Split(p)
	if len(parts) == 0 {
		return newError(OpCreate, Root, ErrInvalidPath)
	}

	parent, err := t.ensureDir(OpCreate, parts[:len(parts)-1])
	if err != nil {
		return err
	}

	name := parts[len(parts)-1]
	if _, isDir := parent.children[name].(*Dir); isDir {
		return newError(OpCreate, Join(parts...), ErrIsADirectory)
	}

	treeLogger.Debug("Creating file %q", Join(parts...))
	parent.children[name] = &File{name: name}
	return nil
}

// MakeDir creates the directory p and any missing parents.
func (t *Tree) MakeDir(p string) error {
	_, err := t.ensureDir(OpMkdir, Split(p))
	return err
}

// Move relinks the node at src under the parent of dst with the final
// segment of dst as its new name. Missing destination parents are
// created. The subtree below a moved directory is untouched.
func (t *Tree) Move(src, dst string) error {
	srcParts, dstParts := Split(src), Split(dst)
	if len(srcParts) == 0 {
		return newError(OpMove, Root, ErrInvalidPath)
	}

	node, err := t.walk(OpMove, srcParts)
	if err != nil {
		return err
	}
	if len(dstParts) == 0 {
		return newError(OpMove, Root, ErrInvalidDestination)
	}

	srcPath, dstPath := Join(srcParts...), Join(dstParts...)
	if srcPath == dstPath {
		return nil
	}
	if _, isDir := node.(*Dir); isDir && IsWithin(dstPath, srcPath) {
		return newError(OpMove, srcPath, ErrMoveIntoSelf)
	}

	// The source parent exists: walk succeeded through it.
	srcParentNode, _ := t.walk(OpMove, srcParts[:len(srcParts)-1])
	srcParent := srcParentNode.(*Dir)

	dstParentParts := dstParts[:len(dstParts)-1]
	dstParent, err := t.ensureDir(OpMove, dstParentParts)
	if err != nil {
		if errors.Is(err, ErrNotADirectory) {
			return newError(OpMove, Join(dstParentParts...), ErrInvalidDestination)
		}
		return err
	}

	oldName, newName := srcParts[len(srcParts)-1], dstParts[len(dstParts)-1]
	treeLogger.Debug("Moving %q to %q", srcPath, dstPath)

	delete(srcParent.children, oldName)
	setName(node, newName)
	dstParent.children[newName] = node
	return nil
}

// AddEntry inserts a record into the tree. typ "dir" creates a directory
// (an existing directory is kept with its children), any other type a file
// whose content is base64-decoded from content.
func (t *Tree) AddEntry(p, typ, content string) error {
	parts := Split(p)
	kind := ParseKind(typ)
	if len(parts) == 0 {
		if kind == KindDir {
			return nil
		}
		return newError(OpAdd, Root, ErrInvalidPath)
	}

	parent, err := t.ensureDir(OpAdd, parts[:len(parts)-1])
	if err != nil {
		return err
	}

	name := parts[len(parts)-1]
	existing := parent.children[name]

	switch kind {
	case KindDir:
		if _, ok := existing.(*Dir); ok {
			return nil
		}
		parent.children[name] = newDir(name)
	case KindFile:
		if _, ok := existing.(*Dir); ok {
			return newError(OpAdd, Join(parts...), ErrIsADirectory)
		}
		parent.children[name] = &File{name: name, content: DecodeContent(content)}
	}

	treeLogger.Trace("Added %s entry %q", kind, Join(parts...))
	return nil
}

// WalkFunc is called for every node visited by Walk with its absolute path.
type WalkFunc func(p string, n Node) error

// Walk visits every node depth-first, root first, children in
// lexicographic order. Returning an error from fn stops the walk.
func (t *Tree) Walk(fn WalkFunc) error {
	return walkNode(Root, t.root, fn)
}

func walkNode(p string, n Node, fn WalkFunc) error {
	if err := fn(p, n); err != nil {
		return err
	}
	dir, ok := n.(*Dir)
	if !ok {
		return nil
	}
	for _, name := range dir.Names() {
		childPath := Join(append(Split(p), name)...)
		if err := walkNode(childPath, dir.children[name], fn); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes the size of a tree.
type Stats struct {
	Dirs  int   // directories, excluding the root
	Files int   // files
	Bytes int64 // total file content
}

// Stats counts directories, files and content bytes.
func (t *Tree) Stats() Stats {
	var s Stats
	_ = t.Walk(func(p string, n Node) error {
		switch n := n.(type) {
		case *Dir:
			if p != Root {
				s.Dirs++
			}
		case *File:
			s.Files++
			s.Bytes += int64(n.Size())
		}
		return nil
	})
	return s
}
