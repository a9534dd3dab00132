// Package sound plans and downloads the audio clip behind every record.
package sound

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/pale/internal/parser"
	"github.com/dgallion1/pale/internal/records"
)

// DefaultExt is used when a source URL names no known audio format.
const DefaultExt = ".ogg"

// Asset is one clip to download.
type Asset struct {
	Champion string
	Source   string
	Path     string
}

// Stem builds a kebab-case file stem from a header and optional subheader.
func Stem(header, subheader string) string {
	stem := slug(header)
	if sub := slug(subheader); sub != "" {
		if stem == "" {
			return sub
		}
		stem += "-" + sub
	}
	if stem == "" {
		return "line"
	}
	return stem
}

func slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// Plan assigns every distinct source a path under dir of the form
// <champion>/<stem>-<counter><ext>. Counters start at 1 and run per champion
// and stem in record order.
func Plan(rs []records.Record, dir string) []Asset {
	seen := make(map[string]bool)
	counters := make(map[[2]string]int)
	var out []Asset
	for _, r := range rs {
		if r.Source == "" || seen[r.Source] {
			continue
		}
		seen[r.Source] = true

		stem := Stem(r.Header, r.Subheader)
		key := [2]string{r.Champion, stem}
		counters[key]++

		ext, ok := parser.AudioExt(r.Source)
		if !ok {
			ext = DefaultExt
		}
		name := fmt.Sprintf("%s-%03d%s", stem, counters[key], ext)
		out = append(out, Asset{
			Champion: r.Champion,
			Source:   r.Source,
			Path:     filepath.Join(dir, championDir(r.Champion), name),
		})
	}
	return out
}

func championDir(champion string) string {
	if d := slug(champion); d != "" {
		return d
	}
	return "unknown"
}
