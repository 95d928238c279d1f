package handler

import (
	"os"
	"regexp"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
	docx "github.com/fumiama/go-docx"
)

// DOCX handles .docx files, building a tree from Heading1..6 styles.
type DOCX struct {
	exts  []string
	cache treeCache
}

// NewDOCX creates the handler; extensions default to .docx.
func NewDOCX(exts ...string) *DOCX {
	if len(exts) == 0 {
		exts = []string{".docx"}
	}
	return &DOCX{exts: exts}
}

func (h *DOCX) Name() string         { return "docx" }
func (h *DOCX) Extensions() []string { return h.exts }

func (h *DOCX) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (h *DOCX) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

func (h *DOCX) NodeContent(n *hierarchy.Node) string { return n.Content }

func (h *DOCX) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

func (h *DOCX) parse(path string) ([]*hierarchy.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, err
	}

	b := newSectionBuilder(path)
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if level := paragraphHeadingLevel(para); level > 0 {
			b.Heading(level, text)
		} else {
			b.Prose(text)
		}
	}
	return b.Roots(), nil
}

func paragraphHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	if d := style[len(style)-1]; d >= '1' && d <= '6' {
		return int(d - '0')
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
