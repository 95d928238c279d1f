package handler

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Markdown handles Markdown files with a composite hierarchy: headings nest
// by level, list items nest by indentation under their section.
type Markdown struct {
	exts  []string
	cache treeCache
}

// NewMarkdown creates the handler; extensions default to .md/.markdown.
func NewMarkdown(exts ...string) *Markdown {
	if len(exts) == 0 {
		exts = []string{".md", ".markdown"}
	}
	return &Markdown{exts: exts}
}

func (h *Markdown) Name() string         { return "markdown" }
func (h *Markdown) Extensions() []string { return h.exts }

func (h *Markdown) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (h *Markdown) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

// NodeContent returns section content for headings (heading text plus owned
// prose) and the item text for list items.
func (h *Markdown) NodeContent(n *hierarchy.Node) string {
	if n.Kind == hierarchy.KindListItem {
		return n.Text
	}
	return n.Content
}

func (h *Markdown) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

func (h *Markdown) parse(path string) ([]*hierarchy.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, body := splitFrontmatter(data)

	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	b := newSectionBuilder(path)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.Heading(node.Level, string(node.Text(body)))
		case *ast.List:
			h.buildList(node, body, b, nil, 0, path)
		default:
			b.Prose(blockText(n, body))
		}
	}
	return b.Roots(), nil
}

// buildList converts a (possibly nested) markdown list into list-item nodes
// under parent, or under the current section when parent is nil.
func (h *Markdown) buildList(list *ast.List, src []byte, b *sectionBuilder, parent *hierarchy.Node, depth int, path string) {
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		item, ok := li.(*ast.ListItem)
		if !ok {
			continue
		}
		itemText := listItemText(item, src)
		node := &hierarchy.Node{
			ID:      hierarchy.NewID(),
			Content: itemText,
			Text:    itemText,
			File:    path,
			Kind:    hierarchy.KindListItem,
			Meta:    map[string]string{"list_level": strconv.Itoa(depth)},
		}
		if parent != nil {
			parent.AddChild(node)
		} else {
			b.Attach(node)
		}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				h.buildList(sub, src, b, node, depth+1, path)
			}
		}
	}
}

// listItemText collects the item's own text, excluding nested lists.
func listItemText(item ast.Node, src []byte) string {
	var parts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*ast.List); ok {
			continue
		}
		if t := strings.TrimSpace(string(c.Text(src))); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// blockText gets the text content of a goldmark block node, including raw
// lines of code blocks and the text of nested inlines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

var (
	hashtagRe    = regexp.MustCompile(`(?m)(?:^|\s)#([\w-]+)`)
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`\n]+`")
)

// C-preprocessor directives that look like hashtags in technical notes.
var hashtagExclusions = map[string]bool{
	"define": true, "include": true, "ifndef": true, "endif": true,
	"pragma": true, "undef": true, "if": true, "else": true,
	"error": true, "warning": true, "line": true,
}

// ExtractTags combines standalone hashtags (outside code) with YAML
// frontmatter tags. Markdown tags are file-level: the refs carry no node ID.
func (h *Markdown) ExtractTags(path string) map[string][]TagRef {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	found := map[string]bool{}

	stripped := fencedCodeRe.ReplaceAll(data, nil)
	stripped = inlineCodeRe.ReplaceAll(stripped, nil)
	for _, m := range hashtagRe.FindAllSubmatch(stripped, -1) {
		tag := string(m[1])
		if isDigits(tag) || hashtagExclusions[strings.ToLower(tag)] {
			continue
		}
		found[tag] = true
	}

	for _, tag := range frontmatterTags(data) {
		found[tag] = true
	}

	if len(found) == 0 {
		return nil
	}
	name := filepath.Base(path)
	tags := map[string][]TagRef{}
	for tag := range found {
		tags[tag] = append(tags[tag], TagRef{File: path, NodeText: name})
	}
	return tags
}

// Link produces a path#fragment link.
func (h *Markdown) Link(path, nodeID string) string {
	return RelLink(path, nodeID)
}

var anchorStripRe = regexp.MustCompile(`[^\w\-_]`)
var anchorDashRe = regexp.MustCompile(`-+`)

// Anchor converts a heading to a GitHub-style anchor,
// e.g. "ARM Interrupt Handling" -> "arm-interrupt-handling".
func (h *Markdown) Anchor(heading string) string {
	anchor := strings.ToLower(heading)
	anchor = anchorStripRe.ReplaceAllString(anchor, "-")
	anchor = anchorDashRe.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}

// splitFrontmatter separates a leading YAML frontmatter block from the body.
func splitFrontmatter(data []byte) (frontmatter, body []byte) {
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, data
	}
	rest := data[4:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data
	}
	body = rest[end+4:]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return rest[:end], body
}

// frontmatterTags reads the tags key of a YAML frontmatter block, accepting
// both list form and a comma-separated scalar.
func frontmatterTags(data []byte) []string {
	fm, _ := splitFrontmatter(data)
	if fm == nil {
		return nil
	}
	var meta struct {
		Tags any `yaml:"tags"`
	}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return nil
	}
	var out []string
	switch v := meta.Tags.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
