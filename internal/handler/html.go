package handler

import (
	"os"
	"regexp"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
	"golang.org/x/net/html"
)

// HTML handles HTML files, building a tree from heading tags.
type HTML struct {
	exts  []string
	cache treeCache
}

// NewHTML creates the handler; extensions default to .html/.htm.
func NewHTML(exts ...string) *HTML {
	if len(exts) == 0 {
		exts = []string{".html", ".htm"}
	}
	return &HTML{exts: exts}
}

func (h *HTML) Name() string         { return "html" }
func (h *HTML) Extensions() []string { return h.exts }

func (h *HTML) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (h *HTML) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

func (h *HTML) NodeContent(n *hierarchy.Node) string { return n.Content }

func (h *HTML) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

func (h *HTML) parse(path string) ([]*hierarchy.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	b := newSectionBuilder(path)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.Heading(level, elementText(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				b.Prose(elementText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.Roots(), nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func elementText(n *html.Node) string {
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
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
