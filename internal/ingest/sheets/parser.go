package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed sheet export: the header and the rows whose column count
// matches it.
type Table struct {
	Header  []string
	Rows    []RawRow
	Dropped int
}

// RawRow is one data row keyed by the table header.
type RawRow struct {
	// Index is the sheet row number, counting the header as row 1. The
	// write-back endpoint addresses rows by this number.
	Index  int
	header []string
	values []string
}

// NewRawRow pairs header and values. Extra values or headers are ignored.
func NewRawRow(index int, header, values []string) RawRow {
	return RawRow{Index: index, header: header, values: values}
}

// Get returns the trimmed value of column key, or "" when absent.
func (r RawRow) Get(key string) string {
	for i, h := range r.header {
		if h == key && i < len(r.values) {
			return r.values[i]
		}
	}
	return ""
}

// Keys returns the column names in sheet order.
func (r RawRow) Keys() []string { return r.header }

// Parse reads a comma-delimited sheet export with a header row.
// Rows with a column count different from the header are dropped silently
// and counted in Table.Dropped. An empty input yields an empty table.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header = trimAll(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	// Sheet rows map to records, not lines: a quoted cell may span lines.
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			t.Dropped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading rows: %w", err)
		}
		if len(rec) != len(header) {
			t.Dropped++
			continue
		}
		t.Rows = append(t.Rows, NewRawRow(row, header, trimAll(rec)))
	}
	return t, nil
}

func trimAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return values
}
