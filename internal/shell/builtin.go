package shell

import (
	"errors"
	"fmt"
	"strings"

	"vfsterm/internal/vfs"
)

// BuiltinFunc runs a command against the shell. A returned error is shown
// to the user prefixed with the command name, one prefix per line.
type BuiltinFunc func(s *Shell, args []string) (string, error)

// BuiltinCommand represents a built-in command.
type BuiltinCommand struct {
	Name string
	Func BuiltinFunc
	Help string
}

// builtins holds all built-in commands.
var builtins = []BuiltinCommand{
	{"ls", builtinLs, "List the entries of a directory"},
	{"cd", builtinCd, "Change the current directory"},
	{"cat", builtinCat, "Print the content of a file"},
	{"touch", builtinTouch, "Create empty files"},
	{"mv", builtinMv, "Move or rename a file or directory"},
	{"rev", builtinRev, "Reverse each argument"},
	{"uptime", builtinUptime, "Show how long the session has been running"},
	{"exit", builtinExit, "Exit the shell"},
}

// builtinMap maps command names to built-in commands.
var builtinMap = make(map[string]*BuiltinCommand)

func init() {
	for i := range builtins {
		builtinMap[builtins[i].Name] = &builtins[i]
	}
}

// Commands returns the built-in commands in display order.
func Commands() []BuiltinCommand {
	out := make([]BuiltinCommand, len(builtins))
	copy(out, builtins)
	return out
}

var (
	errMissingArgument = errors.New("missing argument")
	errMissingFileName = errors.New("missing file name")
)

// builtinLs lists the current directory or the one named by args[0].
func builtinLs(s *Shell, args []string) (string, error) {
	target := s.cwd
	if len(args) > 0 {
		var err error
		if target, err = s.resolve(args[0]); err != nil {
			return "", fmt.Errorf("cannot access '%s': No such file or directory", vfs.PathOf(err))
		}
	}

	names, err := s.tree.List(target)
	switch {
	case errors.Is(err, vfs.ErrNotADirectory):
		return "", fmt.Errorf("'%s' is not a directory", target)
	case err != nil:
		return "", fmt.Errorf("cannot access '%s': No such file or directory", target)
	}
	return strings.Join(names, " "), nil
}

// builtinCd changes the current directory.
func builtinCd(s *Shell, args []string) (string, error) {
	if len(args) == 0 {
		return "", errMissingArgument
	}

	target, err := s.resolve(args[0])
	if err != nil {
		return "", fmt.Errorf("Path '%s' not found in VFS", vfs.PathOf(err))
	}
	node, err := s.tree.GetNode(target)
	if err != nil {
		return "", fmt.Errorf("Path '%s' not found in VFS", target)
	}
	if node.Kind() != vfs.KindDir {
		return "", fmt.Errorf("'%s' is not a directory", target)
	}

	s.cwd = target
	return "", nil
}

// builtinCat prints a file's content.
func builtinCat(s *Shell, args []string) (string, error) {
	if len(args) == 0 {
		return "", errMissingFileName
	}

	target, err := s.resolve(args[0])
	if err != nil {
		return "", fmt.Errorf("'%s' not found", vfs.PathOf(err))
	}
	data, err := s.tree.ReadFile(target)
	switch {
	case errors.Is(err, vfs.ErrIsADirectory):
		return "", fmt.Errorf("'%s' is a directory", target)
	case err != nil:
		return "", fmt.Errorf("'%s' not found", target)
	}
	return string(data), nil
}

// builtinTouch creates every named file. Failing arguments do not stop the
// remaining ones.
func builtinTouch(s *Shell, args []string) (string, error) {
	if len(args) == 0 {
		return "", errMissingFileName
	}

	var failures []string
	for _, arg := range args {
		if err := touch(s, arg); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return "", errors.New(strings.Join(failures, "\n"))
	}
	return "", nil
}

func touch(s *Shell, arg string) error {
	target, err := s.resolve(arg)
	if err != nil {
		return fmt.Errorf("cannot create file in '%s'", vfs.PathOf(err))
	}
	err = s.tree.MakeFile(target)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vfs.ErrInvalidPath):
		return errors.New("invalid path")
	case errors.Is(err, vfs.ErrIsADirectory):
		return fmt.Errorf("'%s' is a directory", target)
	default:
		return fmt.Errorf("cannot create file in '%s'", vfs.Parent(target))
	}
}

// builtinMv moves args[0] to args[1]. Extra arguments are ignored.
func builtinMv(s *Shell, args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("usage: mv <src> <dst>")
	}

	src, err := s.resolve(args[0])
	if err != nil {
		return "", fmt.Errorf("Source '%s' not found", vfs.PathOf(err))
	}
	dst, err := s.resolve(args[1])
	if err != nil {
		return "", fmt.Errorf("Destination '%s' not found or not a directory", vfs.PathOf(err))
	}
	err = s.tree.Move(src, dst)
	switch {
	case err == nil:
		s.repairCwd(src, dst)
		return "", nil
	case errors.Is(err, vfs.ErrInvalidPath):
		return "", errors.New("invalid source")
	case errors.Is(err, vfs.ErrPathNotFound):
		return "", fmt.Errorf("Source '%s' not found", src)
	case errors.Is(err, vfs.ErrMoveIntoSelf):
		return "", fmt.Errorf("cannot move '%s' to a subdirectory of itself", src)
	default:
		return "", fmt.Errorf("Destination '%s' not found or not a directory", vfs.PathOf(err))
	}
}

// builtinRev reverses every argument rune by rune.
func builtinRev(s *Shell, args []string) (string, error) {
	if len(args) == 0 {
		return "", errMissingArgument
	}

	words := make([]string, len(args))
	for i, arg := range args {
		words[i] = reverse(arg)
	}
	return strings.Join(words, " "), nil
}

func reverse(word string) string {
	r := []rune(word)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func builtinUptime(s *Shell, args []string) (string, error) {
	return fmt.Sprintf("Uptime: %.2f seconds", s.Uptime().Seconds()), nil
}

func builtinExit(s *Shell, args []string) (string, error) {
	return ExitSentinel, nil
}
