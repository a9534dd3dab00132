package doctree

import (
	"iter"
	"slices"
	"sort"
)

// Kind is a bitmask of the roles a node plays in a document.
type Kind uint8

const (
	KindHeading    Kind = 1 << iota // Any section heading.
	KindTopHeading                  // Heading that opens a top-level section.
	KindMarker                      // Alternate sub-entry marker (definition term).
	KindContent                     // Leaf carrying a payload, e.g. an audio clip.
)

// Matches reports whether n carries any of the bits in k.
func (k Kind) Matches(n *Node) bool {
	return n != nil && n.Kind&k != 0
}

// Node is a single element of a parsed document.
type Node struct {
	ID      int    // Position in document order; also the node's identity.
	Kind    Kind   // Roles this node plays.
	Tag     string // Source element name (e.g. "span", "audio", "h3").
	Text    string // Extracted text.
	Payload string // Content payload, e.g. an audio source URL.
}

// Document is an immutable, ordered sequence of nodes.
type Document struct {
	Title string
	nodes []*Node
	index map[Kind][]int
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int { return len(d.nodes) }

// Nodes returns the document's nodes in order. The slice must not be modified.
func (d *Document) Nodes() []*Node { return d.nodes }

// Node returns the node with the given ID, or nil if out of range.
func (d *Document) Node(id int) *Node {
	if id < 0 || id >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// All returns every node matching k in document order.
func (d *Document) All(k Kind) []*Node {
	var out []*Node
	for n := range d.Successors(nil, k) {
		out = append(out, n)
	}
	return out
}

// Successors yields the nodes after n that match k, in ascending document
// order. A nil n yields matches from the start of the document.
func (d *Document) Successors(n *Node, k Kind) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		start := -1
		if n != nil {
			start = n.ID
		}
		positions := d.positions(k)
		i := sort.SearchInts(positions, start+1)
		for ; i < len(positions); i++ {
			if !yield(d.nodes[positions[i]]) {
				return
			}
		}
	}
}

// positions returns the ascending IDs of nodes matching k. Single-bit kinds
// are served from the index built by the Builder; compound kinds merge the
// indexed positions of their bits.
func (d *Document) positions(k Kind) []int {
	kinds := bits(k)
	if len(kinds) == 1 {
		return d.index[k]
	}
	var out []int
	for _, bit := range kinds {
		out = append(out, d.index[bit]...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func bits(k Kind) []Kind {
	var out []Kind
	for b := Kind(1); b != 0 && b <= k; b <<= 1 {
		if k&b != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Builder accumulates nodes in document order.
type Builder struct {
	title string
	nodes []*Node
}

// NewBuilder starts a document with the given title.
func NewBuilder(title string) *Builder {
	return &Builder{title: title}
}

// Add appends a node and returns it with its ID assigned.
func (b *Builder) Add(kind Kind, tag, text, payload string) *Node {
	n := &Node{ID: len(b.nodes), Kind: kind, Tag: tag, Text: text, Payload: payload}
	b.nodes = append(b.nodes, n)
	return n
}

// Document freezes the builder into a Document, indexing each kind bit in a
// single forward sweep.
func (b *Builder) Document() *Document {
	d := &Document{
		Title: b.title,
		nodes: b.nodes,
		index: make(map[Kind][]int),
	}
	for _, n := range b.nodes {
		for _, bit := range bits(n.Kind) {
			d.index[bit] = append(d.index[bit], n.ID)
		}
	}
	return d
}
