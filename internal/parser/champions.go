package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ChampionAttr is the attribute the wiki's champion list tags each entry with.
const ChampionAttr = "data-champion"

// ExtractChampions reads an index page and returns the champion slugs it
// lists, lower-cased, deduplicated, in page order.
func ExtractChampions(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	seen := make(map[string]bool)
	var champions []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if name, ok := ChampionKey(getAttr(n, ChampionAttr)); ok && !seen[name] {
				seen[name] = true
				champions = append(champions, name)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return champions, nil
}

// ChampionSlug normalizes a display name ("Kai'Sa", "Dr. Mundo") into the
// form used for cache keys and page URLs ("kai'sa", "dr._mundo").
func ChampionSlug(name string) string {
	name = collapse(name)
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// ChampionKey slugs name and reports whether the slug is usable as a cache
// key. Empty slugs and names that could escape the cache directory are not.
func ChampionKey(name string) (string, bool) {
	slug := ChampionSlug(name)
	if slug == "" || slug == "." || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return "", false
	}
	return slug, true
}
