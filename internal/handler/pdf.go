package handler

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
	pdflib "github.com/ledongthuc/pdf"
)

// PDF handles PDF files. Each page becomes one node; the Go library is
// tried first, pdftotext is the fallback when enabled.
type PDF struct {
	exts              []string
	FallbackPdftotext bool
	cache             treeCache
}

// NewPDF creates the handler; extensions default to .pdf.
func NewPDF(exts ...string) *PDF {
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}
	return &PDF{exts: exts, FallbackPdftotext: true}
}

func (h *PDF) Name() string         { return "pdf" }
func (h *PDF) Extensions() []string { return h.exts }

func (h *PDF) CanHandle(path string) bool {
	if !hasExtension(path, h.exts) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (h *PDF) RootNodes(path string) ([]*hierarchy.Node, error) {
	return h.cache.load(path, h.parse)
}

func (h *PDF) NodeContent(n *hierarchy.Node) string { return n.Content }

func (h *PDF) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	return SearchSubtree(h.NodeContent, n, pattern, includeDescendants)
}

func (h *PDF) parse(path string) ([]*hierarchy.Node, error) {
	text, err := extractPDFText(path)
	if err != nil && h.FallbackPdftotext {
		text, err = extractPdftotext(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var roots []*hierarchy.Node
	for i, page := range strings.Split(text, "\f") {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		title := fmt.Sprintf("Page %d", i+1)
		roots = append(roots, &hierarchy.Node{
			ID:      hierarchy.NewID(),
			Content: title + " " + page,
			Text:    title,
			File:    path,
			Kind:    hierarchy.KindPage,
			Meta:    map[string]string{"page": fmt.Sprint(i + 1)},
		})
	}
	return roots, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
