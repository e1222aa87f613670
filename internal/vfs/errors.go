// Package vfs provides the in-memory virtual filesystem tree.
//
// This file contains error types and error handling utilities.
package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound indicates a path segment does not exist in the tree
	ErrPathNotFound = errors.New("path not found")

	// ErrNotADirectory indicates an operation requiring a directory was
	// given a file
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory indicates an operation requiring a file was given a
	// directory
	ErrIsADirectory = errors.New("is a directory")

	// ErrInvalidPath indicates a path with no usable final segment
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidDestination indicates a move whose destination parent is
	// not a directory
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrMoveIntoSelf indicates a directory move into its own subtree
	ErrMoveIntoSelf = errors.New("cannot move a directory into itself")
)

// Error wraps tree errors with the operation and the affected path.
type Error struct {
	Op   string // Operation that failed (e.g., "lookup", "move")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

// PathOf returns the path recorded in err, or "" when err does not carry
// one.
func PathOf(err error) string {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Path
	}
	return ""
}

// Common operation names for consistent logging and error reporting
const (
	OpLookup = "lookup" // Looking up a path
	OpList   = "list"   // Listing directory contents
	OpRead   = "read"   // Reading file contents
	OpCreate = "create" // Creating a new file
	OpMkdir  = "mkdir"  // Creating a new directory
	OpMove   = "move"   // Moving/renaming a node
	OpAdd    = "add"    // Bulk-loading an entry
)
