package mount

import (
	"context"
	"os"
	"syscall"

	"vfsterm/internal/logging"
	"vfsterm/internal/vfs"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is a directory node addressed by its absolute tree path.
type Dir struct {
	fs   *FS
	path string
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path)

	dir, err := d.fs.tree.GetDir(d.path)
	if err != nil {
		return toErrno(err)
	}

	a.Mode = os.ModeDir | 0555
	a.Nlink = uint32(2 + dir.Len())
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	a.Mtime = d.fs.mtime
	a.Atime = d.fs.mtime
	a.Ctime = d.fs.mtime
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	childPath := vfs.Join(append(vfs.Split(d.path), name)...)
	dirLogger.Debug("Looking up %q in directory %q", name, d.path)

	node, err := d.fs.tree.GetNode(childPath)
	if err != nil {
		dirLogger.Debug("Path not found: %q", childPath)
		return nil, toErrno(err)
	}

	switch node.Kind() {
	case vfs.KindDir:
		return &Dir{fs: d.fs, path: childPath}, nil
	case vfs.KindFile:
		return &File{fs: d.fs, path: childPath}, nil
	}
	return nil, syscall.ENOENT
}

// ReadDirAll implements the HandleReadDirAller interface, listing directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path)

	dir, err := d.fs.tree.GetDir(d.path)
	if err != nil {
		return nil, toErrno(err)
	}

	entries := []fuse.Dirent{
		{Name: ".", Type: fuse.DT_Dir},
		{Name: "..", Type: fuse.DT_Dir},
	}
	for _, name := range dir.Names() {
		child, _ := dir.Child(name)
		typ := fuse.DT_File
		if child.Kind() == vfs.KindDir {
			typ = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Name: name, Type: typ})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path, len(entries))
	return entries, nil
}
