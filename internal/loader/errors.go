package loader

import (
	"errors"
	"fmt"
)

// ErrMissingField marks a record without a path or type.
var ErrMissingField = errors.New("missing required fields")

// LoadError reports a failure to build a tree from a record source.
// Line is the 1-based line of the offending record in the source, or 0 when
// the failure is not tied to a record.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("error loading VFS from %s: line %d: %v", e.Source, e.Line, e.Err)
	case e.Source != "":
		return fmt.Sprintf("error loading VFS from %s: %v", e.Source, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("error loading VFS: line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("error loading VFS: %v", e.Err)
	}
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *LoadError) Unwrap() error {
	return e.Err
}
