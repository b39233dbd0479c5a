// Package output appends consolidated tables to the running CSV file.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/charmap"

	"github.com/guttosm/debpulse/internal/table"
)

// HeaderPolicy decides when the column row is written.
type HeaderPolicy string

const (
	// HeaderNever never writes the column row.
	HeaderNever HeaderPolicy = "never"
	// HeaderOnCreate writes the column row only into a new or empty file.
	HeaderOnCreate HeaderPolicy = "on_create"
	// HeaderAlways writes the column row before every appended block.
	HeaderAlways HeaderPolicy = "always"
)

// ParseHeaderPolicy validates a configured policy name.
func ParseHeaderPolicy(s string) (HeaderPolicy, error) {
	switch p := HeaderPolicy(s); p {
	case HeaderNever, HeaderOnCreate, HeaderAlways:
		return p, nil
	case "":
		return HeaderOnCreate, nil
	default:
		return "", fmt.Errorf("unknown header policy %q", s)
	}
}

// AppendCSV appends t to path as comma separated, ISO-8859-1 encoded text.
//
// The whole block is encoded in memory first; if any cell holds a character
// ISO-8859-1 cannot represent, nothing is written. Parent directories are
// created when missing. It returns whether the column row was written.
func AppendCSV(path string, t *table.Table, policy HeaderPolicy) (bool, error) {
	writeHeader := false
	switch policy {
	case HeaderAlways:
		writeHeader = true
	case HeaderOnCreate:
		st, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			writeHeader = true
		case err != nil:
			return false, fmt.Errorf("stat output: %w", err)
		default:
			writeHeader = st.Size() == 0
		}
	case HeaderNever:
	default:
		return false, fmt.Errorf("unknown header policy %q", policy)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if writeHeader {
		if err := w.Write(t.Columns); err != nil {
			return false, fmt.Errorf("encode columns: %w", err)
		}
	}
	for i, r := range t.Rows {
		if err := w.Write(r); err != nil {
			return false, fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("encode output: %w", err)
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return false, fmt.Errorf("encode output as ISO-8859-1: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open output: %w", err)
	}
	if _, err := f.Write(encoded); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("append output: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close output: %w", err)
	}
	return writeHeader, nil
}
