// Package clean flags quoted voice lines and derives a deduplicated
// quotes-only table from parsed records.
package clean

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pale/internal/records"
)

// Annotated is a record with its quoting resolved.
type Annotated struct {
	records.Record
	Quoted bool `json:"quoted"`
}

// Quote is a quoted line without its audio source.
type Quote struct {
	Header    string `json:"header"`
	Subheader string `json:"subheader,omitempty"`
	Text      string `json:"text"`
	Champion  string `json:"champion"`
}

var quotePairs = []struct{ open, close string }{
	{`"`, `"`},
	{"“", "”"},
	{"'", "'"},
}

// Unquote reports whether s is wrapped in a matching pair of quotes and
// returns the inner text.
func Unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, q := range quotePairs {
		if utf8.RuneCountInString(s) < 2 {
			break
		}
		if strings.HasPrefix(s, q.open) && strings.HasSuffix(s, q.close) {
			return strings.TrimSpace(s[len(q.open) : len(s)-len(q.close)]), true
		}
	}
	return s, false
}

// Annotate flags quoted lines and strips their surrounding quotes.
func Annotate(rs []records.Record) []Annotated {
	out := make([]Annotated, len(rs))
	for i, r := range rs {
		text, quoted := Unquote(r.Text)
		r.Text = text
		out[i] = Annotated{Record: r, Quoted: quoted}
	}
	return out
}

// QuotesOnly keeps the quoted lines, drops their source, and removes
// repeated rows, keeping the first occurrence.
func QuotesOnly(as []Annotated) []Quote {
	seen := make(map[Quote]bool)
	var out []Quote
	for _, a := range as {
		if !a.Quoted {
			continue
		}
		q := Quote{Header: a.Header, Subheader: a.Subheader, Text: a.Text, Champion: a.Champion}
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
