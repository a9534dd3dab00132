package records

import (
	"net/url"
	"strings"
)

// Valid reports whether r can be exported and downloaded: it needs a
// champion, some text, and an absolute http(s) source.
func Valid(r Record) bool {
	if strings.TrimSpace(r.Champion) == "" || strings.TrimSpace(r.Text) == "" {
		return false
	}
	u, err := url.Parse(r.Source)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Filter returns the valid records of rs and the number dropped.
func Filter(rs []Record) ([]Record, int) {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		if Valid(r) {
			out = append(out, r)
		}
	}
	return out, len(rs) - len(out)
}
