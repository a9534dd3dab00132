package parser

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/pale/internal/doctree"
	"golang.org/x/net/html"
)

// Rules describe how wiki markup maps onto node kinds.
type Rules struct {
	HeadingClass  string // class of the span carrying a heading's title
	TopHeadingTag string // heading element that opens a top-level section
	MarkerTag     string // element used as an alternate sub-entry marker
	ContentTag    string // element carrying a clip
	ContentClass  string
	SourceTag     string // child of ContentTag holding the payload
	SourceAttr    string
}

// DefaultRules match MediaWiki audio pages.
func DefaultRules() Rules {
	return Rules{
		HeadingClass:  "mw-headline",
		TopHeadingTag: "h2",
		MarkerTag:     "dt",
		ContentTag:    "audio",
		ContentClass:  "ext-audiobutton",
		SourceTag:     "source",
		SourceAttr:    "src",
	}
}

// HTMLParser handles wiki HTML pages. The zero value uses DefaultRules.
type HTMLParser struct {
	Rules *Rules
}

func (p *HTMLParser) Parse(r io.Reader, name string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rules := DefaultRules()
	if p.Rules != nil {
		rules = *p.Rules
	}

	title := strings.TrimSuffix(strings.TrimSuffix(name, ".html"), ".htm")
	if t := findTitle(doc); t != "" {
		title = t
	}
	b := doctree.NewBuilder(title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "script" || n.Data == "style":
				return
			case n.Data == "span" && hasClass(n, rules.HeadingClass):
				kind := doctree.KindHeading
				if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == rules.TopHeadingTag {
					kind |= doctree.KindTopHeading
				}
				b.Add(kind, n.Data, textContent(n), "")
				return // Heading text already extracted.
			case n.Data == rules.MarkerTag:
				b.Add(doctree.KindMarker, n.Data, textContent(n), "")
			case n.Data == rules.ContentTag && hasClass(n, rules.ContentClass):
				b.Add(doctree.KindContent, n.Data, clipText(n), sourceOf(n, rules))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return b.Document(), nil
}

// clipText is the text of the line a clip belongs to: the clip sits inside
// a button wrapper whose parent holds the spoken line.
func clipText(n *html.Node) string {
	line := n
	for i := 0; i < 2 && line.Parent != nil && line.Parent.Type == html.ElementNode; i++ {
		line = line.Parent
	}
	return textContent(line)
}

func sourceOf(n *html.Node, rules Rules) string {
	src := findElement(n, rules.SourceTag)
	if src == nil {
		return ""
	}
	return getAttr(src, rules.SourceAttr)
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(getAttr(n, "class")), class)
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return collapse(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
