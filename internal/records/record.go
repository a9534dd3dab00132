// Package records flattens section outlines into tabular voice-line rows and
// reads and writes them as TSV or XLSX.
package records

import (
	"regexp"
	"strings"

	"github.com/dgallion1/pale/internal/outline"
)

// Record is one voice line with the headings that own it.
type Record struct {
	Header    string `json:"header"`
	Subheader string `json:"subheader,omitempty"`
	Text      string `json:"text"`
	Source    string `json:"source"`
	Champion  string `json:"champion"`
}

var linkLabel = regexp.MustCompile(`\s*Link▶️\s*`)

// Normalize removes the wiki's "Link▶️" play labels and collapses
// whitespace.
func Normalize(s string) string {
	s = linkLabel.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// FromOutline produces one record per content assignment in o. Content
// without a payload has nothing to download and is skipped. A clip admitted
// into two neighbouring sections yields a record for each.
func FromOutline(o *outline.Outline, champion string) []Record {
	out := make([]Record, 0, len(o.Assignments))
	for _, a := range o.Assignments {
		if a.Content.Payload == "" {
			continue
		}
		rec := Record{
			Header:   Normalize(a.Header.Text),
			Text:     Normalize(a.Content.Text),
			Source:   a.Content.Payload,
			Champion: champion,
		}
		if a.Subheader != nil {
			rec.Subheader = Normalize(a.Subheader.Text)
		}
		out = append(out, rec)
	}
	return out
}
