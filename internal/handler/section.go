package handler

import (
	"strconv"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
)

// sectionBuilder assembles a heading tree from the flat block sequence a
// format parser emits. Heading content aggregates the heading text plus the
// prose owned by it (everything until the next heading).
type sectionBuilder struct {
	file  string
	roots []*hierarchy.Node
	stack []sectionLevel
	loose []string // prose seen before the first heading
}

type sectionLevel struct {
	node  *hierarchy.Node
	level int
}

func newSectionBuilder(file string) *sectionBuilder {
	return &sectionBuilder{file: file}
}

// Heading opens a new section at the given level (1-6).
func (b *sectionBuilder) Heading(level int, title string) *hierarchy.Node {
	node := &hierarchy.Node{
		ID:      hierarchy.NewID(),
		Content: title,
		Text:    title,
		File:    b.file,
		Kind:    hierarchy.KindHeading,
		Meta:    map[string]string{"heading_level": strconv.Itoa(level)},
	}

	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].node.AddChild(node)
	} else {
		b.roots = append(b.roots, node)
	}
	b.stack = append(b.stack, sectionLevel{node: node, level: level})
	return node
}

// Prose attributes a block of text to the current section.
func (b *sectionBuilder) Prose(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	cur := b.Current()
	if cur == nil {
		b.loose = append(b.loose, text)
		return
	}
	cur.Content += " " + text
}

// Attach adds a non-section node under the current section, or at the top
// level when no section is open.
func (b *sectionBuilder) Attach(n *hierarchy.Node) {
	if cur := b.Current(); cur != nil {
		cur.AddChild(n)
	} else {
		b.roots = append(b.roots, n)
	}
}

// Current returns the innermost open section, or nil before any heading.
func (b *sectionBuilder) Current() *hierarchy.Node {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1].node
}

// Roots returns the finished top-level nodes. A document with prose but no
// headings collapses into a single section node so it stays searchable.
func (b *sectionBuilder) Roots() []*hierarchy.Node {
	if len(b.roots) == 0 && len(b.loose) > 0 {
		return []*hierarchy.Node{{
			ID:      hierarchy.NewID(),
			Content: strings.Join(b.loose, "\n\n"),
			File:    b.file,
			Kind:    hierarchy.KindSection,
			Meta:    map[string]string{},
		}}
	}
	return b.roots
}
