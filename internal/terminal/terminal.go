// Package terminal drives a shell from a start script and an interactive
// input stream.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"vfsterm/internal/logging"
	"vfsterm/internal/shell"
)

var (
	logger = logging.GetLogger().WithPrefix("terminal")
)

// Emulator feeds lines to a shell and prints the results.
type Emulator struct {
	Shell *shell.Shell
	Out   io.Writer // command output and prompts
	Err   io.Writer // start script failures
}

// New creates an emulator writing to stdout and stderr.
func New(sh *shell.Shell) *Emulator {
	return &Emulator{Shell: sh, Out: os.Stdout, Err: os.Stderr}
}

// ExecuteLine runs one script line. Blank lines and lines starting with '#'
// are skipped; anything else is echoed after the prompt, run, and its
// non-empty result printed. It reports whether the shell asked to exit.
func (e *Emulator) ExecuteLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	fmt.Fprintf(e.Out, "%s%s\n", e.Shell.Prompt(), line)
	return e.run(line)
}

// run tokenizes line on whitespace and dispatches it.
func (e *Emulator) run(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	result := e.Shell.RunCommand(fields[0], fields[1:])
	if result != "" {
		fmt.Fprintln(e.Out, result)
	}
	return result == shell.ExitSentinel
}

// RunScript executes every line of r until the input ends or a command
// exits. exited reports the latter.
func (e *Emulator) RunScript(r io.Reader) (exited bool, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if e.ExecuteLine(scanner.Text()) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// RunScriptFile executes the script at path.
func (e *Emulator) RunScriptFile(path string) (bool, error) {
	logger.Debug("Running start script %s", path)
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	return e.RunScript(f)
}

// RunInteractive prompts for and runs lines from in until end of input, an
// exit command, or cancellation of ctx. On end of input an empty line is
// printed so the shell prompt of the caller starts on a fresh line.
//
// Lines are read on a separate goroutine. If in is an io.Closer it is
// closed when the loop returns, which releases that goroutine; otherwise
// it stays blocked until in yields its next line or ends.
func (e *Emulator) RunInteractive(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c, ok := in.(io.Closer); ok {
		defer c.Close()
	}

	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		fmt.Fprint(e.Out, e.Shell.Prompt())
		select {
		case <-ctx.Done():
			fmt.Fprintln(e.Out)
			return ctx.Err()
		case err := <-done:
			fmt.Fprintln(e.Out)
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if e.run(line) {
				return nil
			}
		}
	}
}

// Start runs script, if set, and then the interactive loop on stdin when
// interactive is true. A failing script is reported and the session
// continues; an exit command in the script ends the session.
func (e *Emulator) Start(ctx context.Context, script string, interactive bool) error {
	return e.start(ctx, script, interactive, os.Stdin)
}

func (e *Emulator) start(ctx context.Context, script string, interactive bool, in io.Reader) error {
	if script != "" {
		exited, err := e.RunScriptFile(script)
		if err != nil {
			logger.Warn("Start script %s failed: %v", script, err)
			fmt.Fprintf(e.Err, "Error reading start script: %v\n", err)
		}
		if exited {
			return nil
		}
	}
	if !interactive {
		return nil
	}
	return e.RunInteractive(ctx, in)
}
