package handler

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
	"golang.org/x/net/html"
)

// Freeplane handles Freeplane mind map (.mm) files.
type Freeplane struct {
	exts  []string
	cache treeCache
}

// NewFreeplane creates the handler; extensions default to .mm.
func NewFreeplane(exts ...string) *Freeplane {
	if len(exts) == 0 {
		exts = []string{".mm"}
	}
	return &Freeplane{exts: exts}
}

func (h *Freeplane) Name() string         { return "freeplane" }
func (h *Freeplane) Extensions() []string { return h.exts }

func (h *Freeplane) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// A valid Freeplane file has <map> as its document element.
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == "map"
		}
	}
}

func (h *Freeplane) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

// NodeContent joins the node text with its rich content and note text.
func (h *Freeplane) NodeContent(n *hierarchy.Node) string {
	parts := []string{n.Text, n.Content, n.Meta["richcontent"], n.Meta["note"]}
	return joinNonEmpty(parts, " ")
}

func (h *Freeplane) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

// ExtractTags collects the TAGS attributes across the tree. Tags are
// whitespace-separated within the attribute; encoded newlines separate too.
func (h *Freeplane) ExtractTags(path string) map[string][]TagRef {
	roots, err := h.RootNodes(path)
	if err != nil {
		return nil
	}
	tags := map[string][]TagRef{}
	var walk func(*hierarchy.Node)
	walk = func(n *hierarchy.Node) {
		if raw := n.Meta["tags"]; raw != "" {
			for _, tag := range strings.Fields(raw) {
				tags[tag] = append(tags[tag], TagRef{File: path, NodeID: n.ID, NodeText: n.Text})
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return tags
}

// Link produces a path#nodeID fragment link.
func (h *Freeplane) Link(path, nodeID string) string {
	return RelLink(path, nodeID)
}

type mmMap struct {
	XMLName xml.Name `xml:"map"`
	Node    *mmNode  `xml:"node"`
}

type mmNode struct {
	ID          string          `xml:"ID,attr"`
	Text        string          `xml:"TEXT,attr"`
	Created     string          `xml:"CREATED,attr"`
	Modified    string          `xml:"MODIFIED,attr"`
	Tags        string          `xml:"TAGS,attr"`
	RichContent []mmRichContent `xml:"richcontent"`
	Children    []mmNode        `xml:"node"`
}

type mmRichContent struct {
	Type  string `xml:"TYPE,attr"`
	Inner string `xml:",innerxml"`
}

func (h *Freeplane) parse(path string) ([]*hierarchy.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc mmMap
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode freeplane xml: %w", err)
	}
	if doc.Node == nil {
		return nil, nil
	}
	return []*hierarchy.Node{h.convert(doc.Node, path)}, nil
}

func (h *Freeplane) convert(el *mmNode, path string) *hierarchy.Node {
	id := el.ID
	if id == "" {
		id = hierarchy.NewID()
	}

	var rich, note string
	for _, rc := range el.RichContent {
		switch rc.Type {
		case "NODE":
			rich = htmlText(rc.Inner)
		case "NOTE":
			note = htmlText(rc.Inner)
		}
	}

	node := &hierarchy.Node{
		ID:      id,
		Content: joinNonEmpty([]string{el.Text, rich, note}, " "),
		Text:    el.Text,
		File:    path,
		Kind:    hierarchy.KindMindmap,
		Meta: map[string]string{
			"richcontent": rich,
			"note":        note,
			"created":     el.Created,
			"modified":    el.Modified,
			"tags":        strings.Join(strings.Fields(el.Tags), " "),
		},
	}

	for i := range el.Children {
		node.AddChild(h.convert(&el.Children[i], path))
	}
	return node
}

// htmlText extracts the plain text of an embedded richcontent HTML body.
func htmlText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var parts []string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return strings.Join(parts, " ")
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
