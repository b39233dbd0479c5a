package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/guttosm/debpulse/internal/table"
)

const (
	// headerLineCount is the number of metadata lines preceding the column row.
	headerLineCount = 3
	fieldDelimiter  = '@'
	// DateColumn is the synthetic column holding the source file stem (YYYYMMDD).
	DateColumn = "Data"
)

// ParsedFile is the result of parsing one downloaded price file.
type ParsedFile struct {
	Path   string
	Date   string       // file stem, e.g. "20250919"
	Header []string     // metadata lines stripped from the top of the file
	Table  *table.Table // body rows plus the Data column
}

// ParseFile reads an ISO-8859-1 encoded price file, strips its metadata
// header and parses the remaining '@' delimited body.
//
// Behavior:
//   - The first body line holds column names; blank column names become "Unnamed: <i>".
//   - Repeated column names are renamed X.1, X.2, … so no cell is lost.
//   - Rows with fewer fields than columns are padded with empty cells.
//   - Rows with more fields than columns fail the whole file.
//   - A column named Data is appended, holding the file name up to its first dot.
//
// It fails on:
//   - missing/unreadable file
//   - fewer than 3 header lines or no column row
//   - malformed records
func ParseFile(ctx context.Context, path string) (*ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))

	header := make([]string, 0, headerLineCount)
	for len(header) < headerLineCount {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("expected %d header lines, found %d", headerLineCount, len(header))
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		header = append(header, strings.TrimRight(line, "\r\n"))
	}

	r := csv.NewReader(br)
	r.Comma = fieldDelimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // row width is checked against the column row below

	columns, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no column row after header")
		}
		return nil, fmt.Errorf("read columns: %w", err)
	}
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			columns[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	tb := table.New(columns...)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		if err := tb.AppendRow(rec); err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line+headerLineCount, err)
		}
	}

	base := filepath.Base(path)
	stem, _, _ := strings.Cut(base, ".")
	tb.AddConstColumn(DateColumn, stem)

	return &ParsedFile{Path: path, Date: stem, Header: header, Table: tb}, nil
}
