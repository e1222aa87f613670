package vfs

import (
	"strings"
)

// Separator is the path separator used inside the tree.
const Separator = "/"

// Root is the normalized path of the tree root.
const Root = "/"

// Split breaks a path into its non-empty segments, applying "." and ".."
// along the way. ".." never climbs above the root.
func Split(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return parts
}

// Clean normalizes p into an absolute path with a single leading
// separator and no empty, "." or ".." segments.
func Clean(p string) string {
	return Join(Split(p)...)
}

// Join assembles segments into an absolute path.
func Join(parts ...string) string {
	if len(parts) == 0 {
		return Root
	}
	return Separator + strings.Join(parts, Separator)
}

// Resolve turns input into an absolute, normalized path. Absolute inputs
// are taken as they are, relative ones are joined onto cwd.
func Resolve(cwd, input string) string {
	if strings.HasPrefix(input, Separator) {
		return Clean(input)
	}
	if cwd == "" {
		cwd = Root
	}
	return Clean(cwd + Separator + input)
}

// Parent returns the parent path of p. The parent of the root is the root.
func Parent(p string) string {
	parts := Split(p)
	if len(parts) == 0 {
		return Root
	}
	return Join(parts[:len(parts)-1]...)
}

// Base returns the final segment of p, or "" for the root.
func Base(p string) string {
	parts := Split(p)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// IsRoot reports whether p normalizes to the root.
func IsRoot(p string) bool {
	return len(Split(p)) == 0
}

// IsWithin reports whether p equals ancestor or lies below it.
func IsWithin(p, ancestor string) bool {
	p, ancestor = Clean(p), Clean(ancestor)
	if ancestor == Root || p == ancestor {
		return true
	}
	return strings.HasPrefix(p, ancestor+Separator)
}

// Rebase rewrites p, which must lie within from, so that it lies within to.
func Rebase(p, from, to string) string {
	p, from = Clean(p), Clean(from)
	if p == from {
		return Clean(to)
	}
	rest := strings.TrimPrefix(p, from)
	if from == Root {
		rest = p
	}
	return Clean(to + rest)
}
