package shell

import (
	"encoding/base64"
	"testing"
	"time"

	"vfsterm/internal/metrics"
	"vfsterm/internal/vfs"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestShell builds a shell over:
//
//	/docs/readme.txt  "hello"
//	/docs/sub/
//	/notes.txt        ""
func newTestShell(t *testing.T, opts ...Option) *Shell {
	t.Helper()
	tree := vfs.NewTree()
	require.NoError(t, tree.AddEntry("/docs", "dir", ""))
	require.NoError(t, tree.AddEntry("/docs/readme.txt", "file",
		base64.StdEncoding.EncodeToString([]byte("hello"))))
	require.NoError(t, tree.AddEntry("/docs/sub", "dir", ""))
	require.NoError(t, tree.AddEntry("/notes.txt", "file", ""))
	return New(tree, opts...)
}

func TestNewShell(t *testing.T) {
	s := newTestShell(t)
	assert.Equal(t, "/", s.Cwd())
	assert.Equal(t, DefaultName, s.Name())
	assert.Equal(t, "vfs:/$ ", s.Prompt())
	assert.NotEmpty(t, s.ID())

	other := newTestShell(t, WithName("box"))
	assert.Equal(t, "box:/$ ", other.Prompt())
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestNewShellNilTree(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestLs(t *testing.T) {
	s := newTestShell(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "cwd", want: "docs notes.txt"},
		{name: "absolute", args: []string{"/docs"}, want: "readme.txt sub"},
		{name: "relative", args: []string{"docs/sub"}, want: ""},
		{name: "dot-dot", args: []string{"docs/.."}, want: "docs notes.txt"},
		{name: "missing", args: []string{"/nope"}, want: "ls: cannot access '/nope': No such file or directory"},
		{name: "file", args: []string{"notes.txt"}, want: "ls: '/notes.txt' is not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.RunCommand("ls", tt.args))
		})
	}
}

func TestCd(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "", s.RunCommand("cd", []string{"docs"}))
	assert.Equal(t, "/docs", s.Cwd())
	assert.Equal(t, "vfs:/docs$ ", s.Prompt())

	assert.Equal(t, "", s.RunCommand("cd", []string{"sub"}))
	assert.Equal(t, "/docs/sub", s.Cwd())

	assert.Equal(t, "", s.RunCommand("cd", []string{"../.."}))
	assert.Equal(t, "/", s.Cwd())

	assert.Equal(t, "", s.RunCommand("cd", []string{".."}))
	assert.Equal(t, "/", s.Cwd(), "cannot climb above the root")
}

func TestDotDotOutOfFile(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "cd: Path '/notes.txt/..' not found in VFS", s.RunCommand("cd", []string{"/notes.txt/.."}))
	assert.Equal(t, "/", s.Cwd())
	assert.Equal(t, "ls: cannot access '/docs/readme.txt/..': No such file or directory",
		s.RunCommand("ls", []string{"docs/readme.txt/.."}))
	assert.Equal(t, "cat: '/notes.txt/..' not found", s.RunCommand("cat", []string{"notes.txt/../docs/readme.txt"}))
	assert.Equal(t, "touch: cannot create file in '/notes.txt/..'", s.RunCommand("touch", []string{"notes.txt/../x"}))
	assert.Equal(t, "mv: Source '/notes.txt/..' not found", s.RunCommand("mv", []string{"notes.txt/../docs", "/d"}))
	assert.Equal(t, "mv: Destination '/notes.txt/..' not found or not a directory",
		s.RunCommand("mv", []string{"docs", "notes.txt/../d"}))
	assert.Equal(t, "docs notes.txt", s.RunCommand("ls", nil), "tree unchanged")
}

func TestCdFailures(t *testing.T) {
	s := newTestShell(t)
	require.Equal(t, "", s.RunCommand("cd", []string{"/docs"}))

	assert.Equal(t, "cd: Path '/missing' not found in VFS", s.RunCommand("cd", []string{"/missing"}))
	assert.Equal(t, "/docs", s.Cwd())

	assert.Equal(t, "cd: '/docs/readme.txt' is not a directory", s.RunCommand("cd", []string{"readme.txt"}))
	assert.Equal(t, "/docs", s.Cwd())

	assert.Equal(t, "cd: missing argument", s.RunCommand("cd", nil))
	assert.Equal(t, "/docs", s.Cwd())
}

func TestCat(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "hello", s.RunCommand("cat", []string{"/docs/readme.txt"}))
	assert.Equal(t, "", s.RunCommand("cat", []string{"notes.txt"}))
	assert.Equal(t, "cat: '/nope.txt' not found", s.RunCommand("cat", []string{"nope.txt"}))
	assert.Equal(t, "cat: '/docs' is a directory", s.RunCommand("cat", []string{"docs"}))
	assert.Equal(t, "cat: missing file name", s.RunCommand("cat", nil))
}

func TestTouch(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "", s.RunCommand("touch", []string{"a.txt"}))
	assert.Equal(t, "a.txt docs notes.txt", s.RunCommand("ls", nil))

	assert.Equal(t, "", s.RunCommand("touch", []string{"/x/y/z.txt"}))
	assert.Equal(t, "", s.RunCommand("cat", []string{"/x/y/z.txt"}))

	require.Equal(t, "", s.RunCommand("cd", []string{"docs"}))
	assert.Equal(t, "", s.RunCommand("touch", []string{"b.txt", "c.txt"}))
	assert.Equal(t, "b.txt c.txt readme.txt sub", s.RunCommand("ls", nil))
}

func TestTouchTruncates(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "", s.RunCommand("touch", []string{"/docs/readme.txt"}))
	assert.Equal(t, "", s.RunCommand("cat", []string{"/docs/readme.txt"}))
}

func TestTouchFailures(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "touch: missing file name", s.RunCommand("touch", nil))
	assert.Equal(t, "touch: invalid path", s.RunCommand("touch", []string{"/"}))
	assert.Equal(t, "touch: '/docs' is a directory", s.RunCommand("touch", []string{"docs"}))
	assert.Equal(t, "touch: cannot create file in '/notes.txt/inner'",
		s.RunCommand("touch", []string{"/notes.txt/inner/f"}))

	out := s.RunCommand("touch", []string{"/", "ok.txt", "docs"})
	assert.Equal(t, "touch: invalid path\ntouch: '/docs' is a directory", out)
	assert.Equal(t, "", s.RunCommand("cat", []string{"/ok.txt"}), "valid arguments are still created")
}

func TestMv(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "", s.RunCommand("touch", []string{"a.txt"}))
	assert.Equal(t, "", s.RunCommand("mv", []string{"a.txt", "b.txt"}))
	assert.Equal(t, "", s.RunCommand("cat", []string{"b.txt"}))
	assert.Equal(t, "cat: '/a.txt' not found", s.RunCommand("cat", []string{"a.txt"}))

	assert.Equal(t, "", s.RunCommand("mv", []string{"/docs", "/archive/docs"}))
	assert.Equal(t, "hello", s.RunCommand("cat", []string{"/archive/docs/readme.txt"}))
	assert.Equal(t, "readme.txt sub", s.RunCommand("ls", []string{"/archive/docs"}))
	assert.Equal(t, "archive b.txt notes.txt", s.RunCommand("ls", nil))
}

func TestMvFailures(t *testing.T) {
	s := newTestShell(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no args", want: "mv: usage: mv <src> <dst>"},
		{name: "one arg", args: []string{"notes.txt"}, want: "mv: usage: mv <src> <dst>"},
		{name: "missing source", args: []string{"ghost", "x"}, want: "mv: Source '/ghost' not found"},
		{name: "root source", args: []string{"/", "/x"}, want: "mv: invalid source"},
		{name: "into itself", args: []string{"/docs", "/docs/sub/docs"}, want: "mv: cannot move '/docs' to a subdirectory of itself"},
		{name: "parent is file", args: []string{"/docs/readme.txt", "/notes.txt/readme.txt"}, want: "mv: Destination '/notes.txt' not found or not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.RunCommand("mv", tt.args))
		})
	}

	assert.Equal(t, "docs notes.txt", s.RunCommand("ls", nil), "tree unchanged")
	assert.Equal(t, "readme.txt sub", s.RunCommand("ls", []string{"/docs"}))
}

func TestMvRebasesCwd(t *testing.T) {
	s := newTestShell(t)
	require.Equal(t, "", s.RunCommand("cd", []string{"/docs/sub"}))

	assert.Equal(t, "", s.RunCommand("mv", []string{"/docs", "/moved"}))
	assert.Equal(t, "/moved/sub", s.Cwd())
	assert.Equal(t, "vfs:/moved/sub$ ", s.Prompt())
	assert.Equal(t, "readme.txt sub", s.RunCommand("ls", []string{".."}))
}

func TestMvOverwritesCwd(t *testing.T) {
	s := newTestShell(t)
	require.Equal(t, "", s.RunCommand("cd", []string{"/docs/sub"}))

	// Replacing /docs/sub with a file leaves /docs as the nearest directory.
	assert.Equal(t, "", s.RunCommand("mv", []string{"/notes.txt", "/docs/sub"}))
	assert.Equal(t, "/docs", s.Cwd())
}

func TestRev(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, "olleh dlrow", s.RunCommand("rev", []string{"hello", "world"}))
	assert.Equal(t, "ba", s.RunCommand("rev", []string{"ab"}))
	assert.Equal(t, "éb", s.RunCommand("rev", []string{"bé"}))
	assert.Equal(t, "rev: missing argument", s.RunCommand("rev", nil))
}

func TestUptime(t *testing.T) {
	mock := clock.NewMock()
	s := newTestShell(t, WithClock(mock))

	assert.Equal(t, "Uptime: 0.00 seconds", s.RunCommand("uptime", nil))

	mock.Add(1500 * time.Millisecond)
	assert.Equal(t, "Uptime: 1.50 seconds", s.RunCommand("uptime", nil))
	assert.Equal(t, 1500*time.Millisecond, s.Uptime())
}

func TestExitAndUnknown(t *testing.T) {
	s := newTestShell(t, WithName("box"))

	assert.Equal(t, ExitSentinel, s.RunCommand("exit", nil))
	assert.Equal(t, "box: frobnicate: command not found", s.RunCommand("frobnicate", []string{"x"}))
}

func TestSharedTree(t *testing.T) {
	a := newTestShell(t)
	b := New(a.Tree())

	require.Equal(t, "", a.RunCommand("touch", []string{"/shared.txt"}))
	assert.Equal(t, "", b.RunCommand("cat", []string{"/shared.txt"}))

	require.Equal(t, "", a.RunCommand("cd", []string{"docs"}))
	assert.Equal(t, "/", b.Cwd(), "sessions keep their own cwd")
}

func TestSharedTreeCwdMovedAway(t *testing.T) {
	a := newTestShell(t)
	b := New(a.Tree())
	require.Equal(t, "", b.RunCommand("cd", []string{"/docs/sub"}))

	require.Equal(t, "", a.RunCommand("mv", []string{"/docs", "/moved"}))

	assert.Equal(t, "/", b.Cwd())
	assert.Equal(t, "vfs:/$ ", b.Prompt())
	assert.Equal(t, "moved notes.txt", b.RunCommand("ls", nil))

	require.Equal(t, "", b.RunCommand("touch", []string{"new.txt"}))
	assert.Equal(t, "moved new.txt notes.txt", a.RunCommand("ls", []string{"/"}), "the moved path is not recreated")
}

func TestSharedTreeCwdReplaced(t *testing.T) {
	a := newTestShell(t)
	b := New(a.Tree())
	require.Equal(t, "", b.RunCommand("cd", []string{"/docs/sub"}))

	// b's directory becomes a file; /docs is the nearest directory left.
	require.Equal(t, "", a.RunCommand("mv", []string{"/notes.txt", "/docs/sub"}))
	assert.Equal(t, "readme.txt sub", b.RunCommand("ls", nil))
	assert.Equal(t, "/docs", b.Cwd())
}

func TestRecorder(t *testing.T) {
	rec := metrics.NewRecorder()
	s := newTestShell(t, WithRecorder(rec))

	s.RunCommand("ls", nil)
	s.RunCommand("cd", []string{"/missing"})
	s.RunCommand("bogus", nil)

	count, err := testutil.GatherAndCount(rec.Registry(), "vfsterm_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCommands(t *testing.T) {
	names := make([]string, 0, len(builtins))
	for _, cmd := range Commands() {
		names = append(names, cmd.Name)
		assert.NotEmpty(t, cmd.Help, cmd.Name)
	}
	assert.Equal(t, []string{"ls", "cd", "cat", "touch", "mv", "rev", "uptime", "exit"}, names)
}
