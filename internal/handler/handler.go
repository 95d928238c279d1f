// Package handler contains the per-format adapters that turn files into
// hierarchy trees and perform subtree content search over them.
package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/dgallion1/kbindex/internal/hierarchy"
)

// ParseError reports a file its adapter could not parse. Callers treat it
// as "zero nodes for this file" and keep going.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Handler is the capability contract one document format implements.
type Handler interface {
	// Name identifies the handler in configuration.
	Name() string

	// Extensions lists the file extensions this handler accepts.
	Extensions() []string

	// CanHandle reports whether the handler can process the given file.
	CanHandle(path string) bool

	// RootNodes parses the file eagerly (once; the tree is cached for the
	// run) and returns its top-level nodes in document order.
	RootNodes(path string) ([]*hierarchy.Node, error)

	// NodeContent extracts the searchable content of a node.
	NodeContent(n *hierarchy.Node) string

	// SubtreeSearch searches node and optionally its descendants.
	//
	// With includeDescendants the collection is exhaustive: every matching
	// node in the subtree, pre-order. Without it the search narrows to one
	// path: a self-match returns just the node, otherwise the first child
	// subtree (in document order) that yields matches wins and later
	// siblings are never examined.
	SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node
}

// TagExtractor is an optional capability for handlers whose format carries
// tags. The returned map goes from tag to its occurrences.
type TagExtractor interface {
	ExtractTags(path string) map[string][]TagRef
}

// TagRef is one occurrence of a tag.
type TagRef struct {
	File     string
	NodeID   string // empty for file-level tags
	NodeText string
}

// Linker is an optional capability for handlers whose format supports
// fragment links into a file.
type Linker interface {
	Link(path, nodeID string) string
}

// RelLink builds a link to path, relative to the working directory where
// possible, with an optional #fragment.
func RelLink(path, nodeID string) string {
	link := path
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			link = rel
		}
	}
	if nodeID != "" {
		return link + "#" + nodeID
	}
	return link
}

// SearchSubtree implements the two-mode subtree search shared by all
// handlers; content supplies the searchable text per node.
func SearchSubtree(content func(*hierarchy.Node) string, node *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	if pattern.MatchString(content(node)) {
		if !includeDescendants {
			// Stop at the coarsest match to preserve hierarchical context.
			return []*hierarchy.Node{node}
		}
		matches := []*hierarchy.Node{node}
		for _, child := range node.Children {
			matches = append(matches, SearchSubtree(content, child, pattern, true)...)
		}
		return matches
	}

	if includeDescendants {
		var matches []*hierarchy.Node
		for _, child := range node.Children {
			matches = append(matches, SearchSubtree(content, child, pattern, true)...)
		}
		return matches
	}

	// First child subtree with a match wins; later siblings stay unexplored.
	for _, child := range node.Children {
		if m := SearchSubtree(content, child, pattern, false); len(m) > 0 {
			return m
		}
	}
	return nil
}

// treeCache memoizes parsed trees per path. Trees are built once per run
// and are read-only afterwards, which keeps node IDs and child order stable
// across queries.
type treeCache struct {
	mu    sync.Mutex
	trees map[string][]*hierarchy.Node
}

func (c *treeCache) load(path string, parse func(string) ([]*hierarchy.Node, error)) ([]*hierarchy.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if roots, ok := c.trees[path]; ok {
		return roots, nil
	}
	roots, err := parse(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if c.trees == nil {
		c.trees = map[string][]*hierarchy.Node{}
	}
	c.trees[path] = roots
	return roots, nil
}

// hasExtension reports whether path carries one of exts (case-insensitive).
func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
