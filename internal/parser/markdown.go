package parser

import (
	"bytes"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/pale/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// AudioExtensions are the link targets the Markdown parser treats as clips.
var AudioExtensions = map[string]bool{
	".ogg":  true,
	".oga":  true,
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
}

// MarkdownParser handles Markdown exports of wiki pages using goldmark.
//
// Level-2 headings open top-level sections, every heading is a heading, a
// paragraph made of a single bold span is a marker, and any link or image
// pointing at an audio file is a clip whose text is the enclosing block.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, name string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	b := doctree.NewBuilder(strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".markdown"))

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			kind := doctree.KindHeading
			if node.Level == 2 {
				kind |= doctree.KindTopHeading
			}
			b.Add(kind, "h"+strconv.Itoa(node.Level), inlineText(node, src), "")
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if strong := soleStrong(node); strong != nil {
				b.Add(doctree.KindMarker, "strong", inlineText(strong, src), "")
				return ast.WalkSkipChildren, nil
			}
		case *ast.Link:
			if isAudio(node.Destination) {
				b.Add(doctree.KindContent, "a", inlineText(enclosingBlock(node), src), string(node.Destination))
			}
		case *ast.Image:
			if isAudio(node.Destination) {
				b.Add(doctree.KindContent, "img", inlineText(enclosingBlock(node), src), string(node.Destination))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return b.Document(), nil
}

// soleStrong returns the bold span if it is the paragraph's only child.
func soleStrong(p *ast.Paragraph) *ast.Emphasis {
	if p.ChildCount() != 1 {
		return nil
	}
	em, ok := p.FirstChild().(*ast.Emphasis)
	if !ok || em.Level != 2 {
		return nil
	}
	return em
}

func enclosingBlock(n ast.Node) ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock {
			return p
		}
	}
	return n
}

func isAudio(dest []byte) bool {
	_, ok := AudioExt(string(dest))
	return ok
}

// AudioExt returns the extension of the first path segment of u that names
// an audio file. Wiki file URLs carry trailing segments such as
// "/revision/latest", so the last segment alone is not enough.
func AudioExt(u string) (string, bool) {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	for _, seg := range strings.Split(u, "/") {
		if ext := strings.ToLower(path.Ext(seg)); AudioExtensions[ext] {
			return ext, true
		}
	}
	return "", false
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			return
		case *ast.String:
			buf.Write(t.Value)
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return collapse(buf.String())
}
