// Package outline builds the two-level section hierarchy of a document and
// assigns every content node to the heading that owns it.
package outline

import (
	"github.com/dgallion1/pale/internal/doctree"
	"github.com/dgallion1/pale/internal/partition"
)

// Assignment records which headings own a content node.
type Assignment struct {
	Content   *doctree.Node
	Header    *doctree.Node
	Subheader *doctree.Node // nil when the header has no subsections
	Duplicate bool          // content was admitted into more than one section
}

// Outline is the result of building a document's section tree.
type Outline struct {
	// Tree holds one section per top heading; elements are subheadings or,
	// when there are none, marker nodes standing in for them.
	Tree []partition.Section
	// Leaves are the separators used to assign content.
	Leaves []*doctree.Node
	// Sections holds content grouped under each leaf separator.
	Sections    []partition.Section
	Assignments []Assignment
	// Orphans are content nodes no section claimed.
	Orphans []*doctree.Node

	parents map[int]int // leaf separator ID -> index into Tree
}

// Row summarizes one leaf section.
type Row struct {
	Header    string `json:"header"`
	Subheader string `json:"subheader,omitempty"`
	Clips     int    `json:"clips"`
}

// Build runs both partitioning passes over doc. It never fails: markup it
// does not recognize yields an empty tree or a non-empty orphan list.
func Build(doc *doctree.Document) *Outline {
	o := &Outline{}
	o.Tree = partition.Partition(doc, doc.All(doctree.KindTopHeading), partition.Options{
		Match:    doctree.KindHeading,
		Fallback: doctree.KindMarker,
	})
	o.Leaves, o.parents = Flatten(o.Tree)
	o.Sections = partition.Partition(doc, o.Leaves, partition.Options{
		Match:           doctree.KindContent,
		AllowDuplicates: true,
	})
	o.resolve()
	o.Orphans = orphans(doc, o.Sections)
	return o
}

// Flatten turns a section tree into leaf separators. A section without
// elements contributes its own header; otherwise each element is a leaf.
// The returned map points each element back to its index in tree.
func Flatten(tree []partition.Section) ([]*doctree.Node, map[int]int) {
	var leaves []*doctree.Node
	parents := make(map[int]int)
	for i, sec := range tree {
		if len(sec.Elements) == 0 {
			leaves = append(leaves, sec.Header)
			continue
		}
		for _, el := range sec.Elements {
			leaves = append(leaves, el)
			parents[el.ID] = i
		}
	}
	return leaves, parents
}

func (o *Outline) resolve() {
	counts := make(map[int]int)
	for _, sec := range o.Sections {
		for _, c := range sec.Elements {
			counts[c.ID]++
		}
	}

	for _, sec := range o.Sections {
		header, sub := o.owner(sec.Header)
		for _, c := range sec.Elements {
			o.Assignments = append(o.Assignments, Assignment{
				Content:   c,
				Header:    header,
				Subheader: sub,
				Duplicate: counts[c.ID] > 1,
			})
		}
	}
}

// owner returns the top header and subheader for a leaf separator.
func (o *Outline) owner(leaf *doctree.Node) (*doctree.Node, *doctree.Node) {
	if i, ok := o.parents[leaf.ID]; ok {
		return o.Tree[i].Header, leaf
	}
	return leaf, nil
}

// Rows lists the leaf sections in document order with their clip counts.
func (o *Outline) Rows() []Row {
	rows := make([]Row, 0, len(o.Sections))
	for _, sec := range o.Sections {
		header, sub := o.owner(sec.Header)
		row := Row{Header: header.Text, Clips: len(sec.Elements)}
		if sub != nil {
			row.Subheader = sub.Text
		}
		rows = append(rows, row)
	}
	return rows
}

func orphans(doc *doctree.Document, sections []partition.Section) []*doctree.Node {
	claimed := make(map[int]bool)
	for _, sec := range sections {
		for _, c := range sec.Elements {
			claimed[c.ID] = true
		}
	}
	var out []*doctree.Node
	for _, c := range doc.All(doctree.KindContent) {
		if !claimed[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
