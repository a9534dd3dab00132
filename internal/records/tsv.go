package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Columns is the TSV header row.
var Columns = []string{"header", "subheader", "text", "source", "champion"}

// Writer wraps csv.Writer for tab-separated record output.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes TSV to w.
func NewWriter(w io.Writer) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return &Writer{csv: cw}
}

// WriteHeader writes the column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// Write writes a batch of records.
func (w *Writer) Write(rs []Record) error {
	for _, r := range rs {
		if err := w.csv.Write([]string{r.Header, r.Subheader, r.Text, r.Source, r.Champion}); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteAll writes the header and rs, then flushes.
func WriteAll(out io.Writer, rs []Record) error {
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.Write(rs); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// ReadAll reads a TSV produced by Writer. Columns are located by header
// name, so files with extra or reordered columns are accepted.
func ReadAll(in io.Reader) ([]Record, error) {
	r := csv.NewReader(in)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(head))
	for i, name := range head {
		idx[name] = i
	}
	for _, name := range []string{"header", "text", "source", "champion"} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		field := func(name string) string {
			if i, ok := idx[name]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}
		out = append(out, Record{
			Header:    field("header"),
			Subheader: field("subheader"),
			Text:      field("text"),
			Source:    field("source"),
			Champion:  field("champion"),
		})
	}
}
