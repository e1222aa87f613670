// Package shell implements the command dispatcher and session state of the
// VFS shell.
package shell

import (
	"fmt"
	"strings"
	"time"

	"vfsterm/internal/logging"
	"vfsterm/internal/metrics"
	"vfsterm/internal/vfs"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// ExitSentinel is returned by RunCommand when the session should end.
const ExitSentinel = "exit"

// DefaultName is the display name used in prompts and error prefixes.
const DefaultName = "vfs"

// Shell holds one session over a tree: the current directory and the start
// time. Several shells may share a tree as long as they are not used
// concurrently. A shell whose current directory is moved away by another
// session falls back to the nearest existing ancestor.
type Shell struct {
	tree      *vfs.Tree
	name      string
	cwd       string
	clock     clock.Clock
	startTime time.Time
	id        string
	recorder  *metrics.Recorder
	logger    *logging.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithName sets the display name used in the prompt and in
// "command not found" messages.
func WithName(name string) Option {
	return func(s *Shell) {
		if name != "" {
			s.name = name
		}
	}
}

// WithClock sets the time source used for uptime.
func WithClock(c clock.Clock) Option {
	return func(s *Shell) {
		s.clock = c
	}
}

// WithRecorder records every dispatched command.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Shell) {
		s.recorder = r
	}
}

// New creates a shell over tree positioned at the root. It panics if tree
// is nil.
func New(tree *vfs.Tree, opts ...Option) *Shell {
	if tree == nil {
		panic("shell: nil tree")
	}

	s := &Shell{
		tree:  tree,
		name:  DefaultName,
		cwd:   vfs.Root,
		clock: clock.New(),
		id:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.clock.Now()
	s.logger = logging.GetLogger().WithPrefix("shell").With("session", s.id)
	s.logger.Debug("Session started as %q", s.name)
	return s
}

// Prompt returns "<name>:<cwd>$ ".
func (s *Shell) Prompt() string {
	return fmt.Sprintf("%s:%s$ ", s.name, s.Cwd())
}

// Cwd returns the absolute path of the current directory.
func (s *Shell) Cwd() string {
	s.ensureCwd()
	return s.cwd
}

// Name returns the display name.
func (s *Shell) Name() string { return s.name }

// ID returns the session id.
func (s *Shell) ID() string { return s.id }

// Tree returns the tree the shell operates on.
func (s *Shell) Tree() *vfs.Tree { return s.tree }

// Uptime returns the time elapsed since the shell was created.
func (s *Shell) Uptime() time.Duration {
	return s.clock.Since(s.startTime)
}

// RunCommand executes one command and returns its output. Failures are
// returned as ordinary output prefixed with the command name; ExitSentinel
// asks the caller to stop.
func (s *Shell) RunCommand(name string, args []string) string {
	start := s.clock.Now()
	s.ensureCwd()
	cmd, ok := builtinMap[name]
	if !ok {
		s.recorder.RecordCommand(name, metrics.StatusUnknown, s.clock.Since(start))
		s.logger.Debug("Unknown command %q", name)
		return fmt.Sprintf("%s: %s: command not found", s.name, name)
	}

	s.logger.Trace("Running %s %q in %s", name, args, s.cwd)
	out, err := cmd.Func(s, args)
	if err != nil {
		s.recorder.RecordCommand(name, metrics.StatusError, s.clock.Since(start))
		s.logger.Debug("Command %s failed: %v", name, err)
		return prefixLines(name, err.Error())
	}

	s.recorder.RecordCommand(name, metrics.StatusOK, s.clock.Since(start))
	return out
}

func prefixLines(prefix, msg string) string {
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = prefix + ": " + line
	}
	return strings.Join(lines, "\n")
}

// resolve turns a user supplied path into an absolute one. Stepping out of
// a file with ".." fails with vfs.ErrPathNotFound.
func (s *Shell) resolve(p string) (string, error) {
	return s.tree.Resolve(s.cwd, p)
}

// repairCwd keeps the current directory valid after the node at from was
// moved to to.
func (s *Shell) repairCwd(from, to string) {
	if vfs.IsWithin(s.cwd, from) {
		rebased := vfs.Rebase(s.cwd, from, to)
		s.logger.Debug("Current directory moved: %q -> %q", s.cwd, rebased)
		s.cwd = rebased
	}
	s.ensureCwd()
}

// ensureCwd moves the current directory up to its nearest existing
// ancestor. Another session sharing the tree may have moved it away.
func (s *Shell) ensureCwd() {
	for {
		if _, err := s.tree.GetDir(s.cwd); err == nil {
			return
		}
		parent := vfs.Parent(s.cwd)
		s.logger.Debug("Current directory %q is gone, using %q", s.cwd, parent)
		s.cwd = parent
	}
}
