package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pale/internal/doctree"
)

// Parser converts raw markup into a Document.
type Parser interface {
	Parse(r io.Reader, name string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this tool can read.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate parser for a file or cache key. Names
// without an extension are treated as HTML, which is what the wiki serves.
func ForFile(name string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case "", ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return SupportedExtensions[ext]
}

// collapse folds runs of whitespace into single spaces and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
