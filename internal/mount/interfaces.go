package mount

import (
	"bazil.org/fuse/fs"
)

// Directory is the set of FUSE operations a directory node serves.
type Directory interface {
	fs.Node
	fs.NodeStringLookuper
	fs.HandleReadDirAller
}

// FileNode is the set of FUSE operations a file node serves.
type FileNode interface {
	fs.Node
	fs.NodeOpener
}

// FileHandleInterface represents an open file handle
type FileHandleInterface interface {
	fs.Handle
	fs.HandleReader
	fs.HandleReleaser
}

var (
	_ fs.FS               = (*FS)(nil)
	_ Directory           = (*Dir)(nil)
	_ FileNode            = (*File)(nil)
	_ FileHandleInterface = (*FileHandle)(nil)
)
