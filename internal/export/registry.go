// Package export writes trajectories in tabular formats.
//
// Formats are registered by name (format -> writer) so callers dispatch on a
// flag value instead of switching on it. "csv" and "jsonl" are built in.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/roach88/sirsim/internal/sir"
)

// WriterFunc writes steps to w in one format.
type WriterFunc func(w io.Writer, steps []sir.Step) error

var writers = map[string]WriterFunc{}

// Register adds or replaces the writer for a format (last wins).
func Register(format string, fn WriterFunc) { writers[format] = fn }

// Write dispatches to the writer registered for format.
func Write(format string, w io.Writer, steps []sir.Step) error {
	fn, ok := writers[format]
	if !ok {
		return fmt.Errorf("unknown export format %q (no writer registered)", format)
	}
	return fn(w, steps)
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("csv", WriteCSV)
	Register("jsonl", WriteJSONL)
}
