package mount

import (
	"context"
	"syscall"

	"vfsterm/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// File is a file node addressed by its absolute tree path.
type File struct {
	fs   *FS
	path string
}

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	data, err := f.fs.tree.ReadFile(f.path)
	if err != nil {
		return toErrno(err)
	}

	size := safeIntToUint64(len(data))
	a.Mode = 0444
	a.Nlink = 1
	a.Size = size
	a.Mtime = f.fs.mtime
	a.Atime = f.fs.mtime
	a.Ctime = f.fs.mtime
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = 4096
	a.Blocks = (size + 511) / 512

	fileLogger.Trace("File attributes for %q: size=%d", f.path, a.Size)
	return nil
}

// Open implements the NodeOpener interface. The content is snapshotted
// into the handle.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	fileLogger.Debug("Opening file %q with flags %v", f.path, req.Flags)

	if !req.Flags.IsReadOnly() {
		fileLogger.Warn("Attempted write access to read-only file: %q", f.path)
		return nil, syscall.EPERM
	}

	data, err := f.fs.tree.ReadFile(f.path)
	if err != nil {
		return nil, toErrno(err)
	}

	resp.Flags |= fuse.OpenKeepCache
	return &FileHandle{data: data, path: f.path}, nil
}

// FileHandle is an open file.
type FileHandle struct {
	data []byte
	path string // For logging purposes
}

// Read implements the HandleReader interface.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d",
		req.Size, fh.path, req.Offset)

	if req.Offset < 0 || req.Offset >= int64(len(fh.data)) {
		resp.Data = nil
		return nil
	}
	end := req.Offset + int64(req.Size)
	if end > int64(len(fh.data)) {
		end = int64(len(fh.data))
	}
	resp.Data = fh.data[req.Offset:end]
	return nil
}

// Release implements the HandleReleaser interface.
func (fh *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fileLogger.Debug("Closing file %q", fh.path)
	return nil
}
