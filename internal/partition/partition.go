// Package partition groups document nodes under separator nodes.
//
// Separators are visited from last to first in document order. Each one
// greedily claims the nearest following unclaimed nodes of the requested
// kind, so a separator only ever owns what lies between it and the next
// separator that already claimed something. The result is returned in
// ascending document order.
package partition

import (
	"iter"
	"slices"

	"github.com/dgallion1/pale/internal/doctree"
)

// Successors is the single traversal primitive the partitioner needs.
// *doctree.Document satisfies it.
type Successors interface {
	Successors(n *doctree.Node, k doctree.Kind) iter.Seq[*doctree.Node]
}

// Section is a separator together with the elements it owns.
type Section struct {
	Header   *doctree.Node
	Elements []*doctree.Node
}

// Options selects which nodes a separator may claim.
type Options struct {
	// Match is the primary kind of node a separator claims.
	Match doctree.Kind
	// Fallback, when non-zero, is claimed by separators whose primary pass
	// found nothing. Separators that did find primary matches still mark
	// every fallback successor as claimed so earlier separators cannot take
	// them.
	Fallback doctree.Kind
	// AllowDuplicates keeps scanning past already-claimed nodes and
	// re-admits them if an unclaimed node follows.
	AllowDuplicates bool
}

// maxShares bounds how many sections may list the same node.
const maxShares = 2

// claims maps node IDs to the number of sections listing them. Nodes claimed
// without being listed (separators, excluded fallback matches) map to zero.
type claims map[int]int

func (c claims) has(n *doctree.Node) bool {
	_, ok := c[n.ID]
	return ok
}

func (c claims) mark(n *doctree.Node) {
	if _, ok := c[n.ID]; !ok {
		c[n.ID] = 0
	}
}

func (c claims) admit(n *doctree.Node) {
	c[n.ID]++
}

// Partition assigns nodes to separators. separators must be in ascending
// document order. The claim set lives only for the duration of the call.
func Partition(q Successors, separators []*doctree.Node, opts Options) []Section {
	if len(separators) == 0 {
		return nil
	}

	state := make(claims)
	out := make([]Section, 0, len(separators))
	for i := len(separators) - 1; i >= 0; i-- {
		var sec Section
		state, sec = step(q, opts, state, separators[i])
		out = append(out, sec)
	}
	slices.Reverse(out)
	return out
}

// step claims the elements for one separator and returns the updated claim
// set together with the separator's section.
func step(q Successors, opts Options, c claims, sep *doctree.Node) (claims, Section) {
	c.mark(sep)
	sec := Section{Header: sep}
	sec.Elements = take(c, q.Successors(sep, opts.Match), opts.AllowDuplicates)

	if opts.Fallback == 0 {
		return c, sec
	}
	fallback := q.Successors(sep, opts.Fallback)
	if len(sec.Elements) == 0 {
		sec.Elements = take(c, fallback, opts.AllowDuplicates)
		return c, sec
	}
	for n := range fallback {
		c.mark(n)
	}
	return c, sec
}

// take walks candidates in order, claiming unclaimed nodes. Without
// duplicates the walk ends at the first claimed node. With duplicates,
// claimed nodes are held back and only admitted if an unclaimed node
// follows them; anything still held when the walk ends is dropped.
func take(c claims, candidates iter.Seq[*doctree.Node], duplicates bool) []*doctree.Node {
	var owned, pending []*doctree.Node
	for n := range candidates {
		if c.has(n) {
			if !duplicates {
				break
			}
			if c[n.ID] < maxShares {
				pending = append(pending, n)
			}
			continue
		}
		for _, p := range pending {
			c.admit(p)
			owned = append(owned, p)
		}
		pending = pending[:0]
		c.admit(n)
		owned = append(owned, n)
	}
	return owned
}
