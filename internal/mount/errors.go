package mount

import (
	"errors"
	"syscall"

	"vfsterm/internal/logging"
	"vfsterm/internal/vfs"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")
)

// toErrno translates tree errors into the syscall errors FUSE expects.
func toErrno(err error) error {
	if err == nil {
		return nil
	}

	errLogger.Trace("Converting tree error to FUSE error: %v", err)
	switch {
	case errors.Is(err, vfs.ErrPathNotFound):
		return syscall.ENOENT
	case errors.Is(err, vfs.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, vfs.ErrIsADirectory):
		return syscall.EISDIR
	case errors.Is(err, vfs.ErrInvalidPath), errors.Is(err, vfs.ErrInvalidDestination):
		return syscall.EINVAL
	default:
		errLogger.Debug("Unknown error type, returning EIO: %v", err)
		return syscall.EIO
	}
}
