// Package ingest reads raw box-score tables from CSV or saved HTML and turns
// them into canonical rows.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is one file's header and records exactly as read. Warnings counts
// structural problems: malformed lines and rows whose width differs from the
// header.
type Table struct {
	Name     string
	Header   []string
	Records  [][]string
	Warnings int
}

// ReadCSV reads a CSV table. Malformed lines are counted and skipped; only a
// failing reader is an error. A quote left open runs into the following
// lines, so a record that is the wrong width and spans lines costs only the
// line it started on.
func ReadCSV(name string, r io.Reader) (Table, error) {
	t := Table{Name: name}

	data, err := io.ReadAll(r)
	if err != nil {
		return t, fmt.Errorf("read %s: %w", name, err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	cr := newCSVReader(data)
	base := 0 // offset of cr's input within data
	header := true
	for {
		start := base + int(cr.InputOffset())
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			t.Warnings++
			continue
		}
		if err != nil {
			return t, fmt.Errorf("read row: %w", err)
		}

		if !header && len(rec) != len(t.Header) && spansLines(rec) {
			t.Warnings++
			base = lineEnd(data, start)
			cr = newCSVReader(data[base:])
			continue
		}
		if header {
			t.Header, header = rec, false
			continue
		}
		t.add(rec)
	}
	return t, nil
}

func newCSVReader(b []byte) *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

func spansLines(rec []string) bool {
	for _, c := range rec {
		if strings.Contains(c, "\n") {
			return true
		}
	}
	return false
}

// lineEnd returns the offset just past the first non-blank line at or after
// off.
func lineEnd(data []byte, off int) int {
	for off < len(data) && (data[off] == '\n' || data[off] == '\r') {
		off++
	}
	i := bytes.IndexByte(data[off:], '\n')
	if i < 0 {
		return len(data)
	}
	return off + i + 1
}

// add appends a record unless it is blank, padding short records to the
// header width.
func (t *Table) add(rec []string) {
	blank := true
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			blank = false
			break
		}
	}
	if blank {
		return
	}
	if len(rec) != len(t.Header) {
		t.Warnings++
	}
	for len(rec) < len(t.Header) {
		rec = append(rec, "")
	}
	t.Records = append(t.Records, rec)
}
