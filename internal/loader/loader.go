// Package loader builds a vfs.Tree from tabular (CSV) records.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"vfsterm/internal/logging"
	"vfsterm/internal/vfs"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

var (
	logger = logging.GetLogger().WithPrefix("loader")
)

// Policy selects what happens when a record cannot be applied.
type Policy int

const (
	// Strict fails the whole load on the first bad record and returns no
	// tree.
	Strict Policy = iota
	// BestEffort applies every valid record and reports all bad ones
	// together with the partial tree.
	BestEffort
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "strict"
}

// ParsePolicy maps a configuration value to a Policy. The empty string
// selects Strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "best-effort", "best_effort", "besteffort":
		return BestEffort, nil
	default:
		return Strict, fmt.Errorf("unknown load policy %q", s)
	}
}

// Record is one row of the record source.
type Record struct {
	Path    string
	Type    string
	Content string
	Line    int // 1-based source line, 0 if unknown
}

// ReadRecords parses CSV with a header row naming the path, type and
// (optional) content columns. Column order is free and a UTF-8 byte order
// mark is ignored.
func ReadRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	logger.Trace("CSV header columns: %v", header)

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		records = append(records, Record{
			Path:    strings.TrimSpace(field(row, "path")),
			Type:    strings.TrimSpace(field(row, "type")),
			Content: strings.TrimSpace(field(row, "content")),
			Line:    line,
		})
	}
	return records, nil
}

// Load applies records to a new tree according to policy. source names the
// record source in errors. Under Strict the first failure is returned with
// a nil tree; under BestEffort the tree is always returned and the error, if
// any, aggregates one *LoadError per rejected record.
func Load(source string, records []Record, policy Policy) (*vfs.Tree, error) {
	tree := vfs.NewTree()
	var result *multierror.Error

	for _, rec := range records {
		err := apply(tree, rec)
		if err == nil {
			continue
		}
		loadErr := &LoadError{Source: source, Line: rec.Line, Err: err}
		if policy == Strict {
			logger.Error("Aborting load: %v", loadErr)
			return nil, loadErr
		}
		logger.Warn("Skipping record: %v", loadErr)
		result = multierror.Append(result, loadErr)
	}

	stats := tree.Stats()
	logger.Info("Loaded %d directories and %d files (%s) from %s",
		stats.Dirs, stats.Files, humanize.Bytes(uint64(stats.Bytes)), source)
	return tree, result.ErrorOrNil()
}

func apply(tree *vfs.Tree, rec Record) error {
	if rec.Path == "" || rec.Type == "" {
		return ErrMissingField
	}
	return tree.AddEntry(rec.Path, rec.Type, rec.Content)
}

// LoadReader reads CSV records from r and loads them.
func LoadReader(source string, r io.Reader, policy Policy) (*vfs.Tree, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return Load(source, records, policy)
}

// LoadFile opens the CSV file at path and loads it.
func LoadFile(path string, policy Policy) (*vfs.Tree, error) {
	logger.Debug("Loading VFS from %s (policy %s)", path, policy)
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return LoadReader(path, f, policy)
}
