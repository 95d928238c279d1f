package hierarchy

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Kind distinguishes the structural role of a node within its document.
type Kind string

const (
	KindGeneric  Kind = "generic"
	KindMindmap  Kind = "mindmap_node"
	KindHeading  Kind = "heading"
	KindListItem Kind = "list_item"
	KindSection  Kind = "section"
	KindPage     Kind = "page"
)

// Node is one structural unit of a parsed document: a mind-map node, a
// heading with its section prose, a list item, a page.
type Node struct {
	ID      string
	Content string // full searchable text
	Text    string // short display label
	File    string // provenance: path of the source file

	// Parent is a lookup-only back-reference. Ownership is expressed by
	// Children alone; both edges are maintained exclusively by AddChild.
	Parent   *Node
	Children []*Node // document order, never resorted

	Kind Kind
	Meta map[string]string
}

// AddChild appends child to n's children and sets the back-reference.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Label returns the display text, falling back to Content, then ID.
func (n *Node) Label() string {
	if n.Text != "" {
		return n.Text
	}
	if n.Content != "" {
		return n.Content
	}
	return n.ID
}

// Descendants returns all nodes under n in pre-order, excluding n itself.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, child := range n.Children {
		out = append(out, child)
		out = append(out, child.Descendants()...)
	}
	return out
}

// ChildrenOfKind returns the direct children with the given kind.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	var out []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			out = append(out, child)
		}
	}
	return out
}

// PathLabels returns the labels from the root down to n, root first.
func (n *Node) PathLabels() []string {
	var rev []string
	for cur := n; cur != nil; cur = cur.Parent {
		rev = append(rev, cur.Label())
	}
	out := make([]string, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}

var idCounter atomic.Uint64

// NewID returns a Freeplane-style node identifier, unique within the run.
func NewID() string {
	return fmt.Sprintf("ID_%X_%X", time.Now().UnixMilli(), idCounter.Add(1))
}

// Timestamp returns the current time in Freeplane format (YYYYMMDDTHHMMSS).
func Timestamp() string {
	return time.Now().Format("20060102T150405")
}
