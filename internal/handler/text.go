package handler

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
)

// Text handles plain text files; each paragraph becomes one node.
type Text struct {
	exts  []string
	cache treeCache
}

// NewText creates the handler; extensions default to .txt.
func NewText(exts ...string) *Text {
	if len(exts) == 0 {
		exts = []string{".txt"}
	}
	return &Text{exts: exts}
}

func (h *Text) Name() string         { return "text" }
func (h *Text) Extensions() []string { return h.exts }

func (h *Text) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (h *Text) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

func (h *Text) NodeContent(n *hierarchy.Node) string { return n.Content }

func (h *Text) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

func (h *Text) parse(path string) ([]*hierarchy.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var roots []*hierarchy.Node
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		para := current.String()
		roots = append(roots, &hierarchy.Node{
			ID:      hierarchy.NewID(),
			Content: para,
			File:    path,
			Kind:    hierarchy.KindSection,
			Meta:    map[string]string{},
		})
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return roots, nil
}
