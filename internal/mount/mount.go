// Package mount exposes a vfs.Tree as a read-only FUSE filesystem.
package mount

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"vfsterm/internal/logging"
	"vfsterm/internal/vfs"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/dustin/go-humanize"
)

var (
	mountLogger = logging.GetLogger().WithPrefix("mount")
)

// FS serves a tree over FUSE. The tree must not be mutated while mounted.
type FS struct {
	tree    *vfs.Tree
	conn    *fuse.Conn
	uid     uint32 // owner reported for every node
	gid     uint32
	mtime   time.Time // reported as every node's timestamps
	serving chan error
}

// New creates a filesystem over tree owned by the current user, or by PUID
// and PGID when set in the environment.
func New(tree *vfs.Tree) *FS {
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			mountLogger.Debug("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			mountLogger.Debug("Using PGID from environment: %d", gid)
		}
	}

	return &FS{
		tree:  tree,
		uid:   uid,
		gid:   gid,
		mtime: time.Now(),
	}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (f *FS) Root() (fusefs.Node, error) {
	mountLogger.Trace("Getting root directory node")
	return &Dir{fs: f, path: vfs.Root}, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount mounts the tree read-only at mountPoint and serves it in the
// background until Unmount.
func (f *FS) Mount(mountPoint string) error {
	stats := f.tree.Stats()
	mountLogger.Info("Mounting %d directories and %d files (%s) at %s",
		stats.Dirs, stats.Files, humanize.Bytes(uint64(stats.Bytes)), mountPoint)
	mountLogger.Debug("UID: %d, GID: %d", f.uid, f.gid)

	mountOpts := []fuse.MountOption{
		fuse.FSName("vfsterm"),
		fuse.Subtype("vfsterm"),
		fuse.ReadOnly(),
		fuse.DefaultPermissions(),
		fuse.AsyncRead(),
		fuse.AllowNonEmptyMount(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	f.conn = c

	f.serving = make(chan error, 1)
	go func() {
		err := fusefs.Serve(c, f)
		if err != nil {
			mountLogger.Error("FUSE server error: %v", err)
		}
		c.Close()
		mountLogger.Debug("FUSE server stopped")
		f.serving <- err
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		mountLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	mountLogger.Info("Filesystem mounted successfully")
	return nil
}

// Done yields the serve error once serving stops. It is nil before Mount.
func (f *FS) Done() <-chan error {
	return f.serving
}

// Unmount unmounts the filesystem. The connection is closed once serving
// stops.
func (f *FS) Unmount(mountPoint string) error {
	mountLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if f.conn == nil {
		return nil
	}
	if err := fuse.Unmount(mountPoint); err != nil {
		mountLogger.Error("Unmount failed: %v", err)
		return err
	}
	mountLogger.Info("Unmount completed successfully")
	return nil
}
