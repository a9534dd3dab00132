package clean

import (
	"encoding/csv"
	"io"
	"strconv"
)

var (
	annotatedColumns = []string{"header", "subheader", "text", "source", "champion", "quoted"}
	quoteColumns     = []string{"header", "subheader", "text", "champion"}
)

func newTSV(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

// WriteAnnotated writes annotated records as TSV with a trailing quoted
// column.
func WriteAnnotated(w io.Writer, as []Annotated) error {
	cw := newTSV(w)
	if err := cw.Write(annotatedColumns); err != nil {
		return err
	}
	for _, a := range as {
		row := []string{a.Header, a.Subheader, a.Text, a.Source, a.Champion, strconv.FormatBool(a.Quoted)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteQuotes writes the quotes-only table as TSV.
func WriteQuotes(w io.Writer, qs []Quote) error {
	cw := newTSV(w)
	if err := cw.Write(quoteColumns); err != nil {
		return err
	}
	for _, q := range qs {
		if err := cw.Write([]string{q.Header, q.Subheader, q.Text, q.Champion}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
