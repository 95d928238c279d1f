// Package mindmap renders the navigation index as a Freeplane .mm file:
// a File System Index mirroring the indexed tree, a Keyword Index of
// search results, and a Tag Index.
package mindmap

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/kbindex/internal/handler"
	"github.com/dgallion1/kbindex/internal/hierarchy"
	"github.com/dgallion1/kbindex/internal/keywords"
)

type xmlMap struct {
	XMLName xml.Name `xml:"map"`
	Version string   `xml:"version,attr"`
	Root    *xmlNode `xml:"node"`
}

type xmlNode struct {
	ID       string     `xml:"ID,attr"`
	Text     string     `xml:"TEXT,attr"`
	Link     string     `xml:"LINK,attr,omitempty"`
	Created  string     `xml:"CREATED,attr,omitempty"`
	Modified string     `xml:"MODIFIED,attr,omitempty"`
	Children []*xmlNode `xml:"node"`
}

func newXMLNode(text string) *xmlNode {
	ts := hierarchy.Timestamp()
	return &xmlNode{ID: hierarchy.NewID(), Text: text, Created: ts, Modified: ts}
}

// Generator writes the navigation mind map.
type Generator struct {
	// OutputFile is excluded from the file system index so the map never
	// indexes itself.
	OutputFile string
}

// Create renders the map and writes it to path.
//
// fsIndex maps each indexed file to its parsed root nodes; entries carry
// keyword search results; tags maps tag names to their references.
func (g *Generator) Create(path string, fsIndex map[string][]*hierarchy.Node, entries []*keywords.Entry, tags map[string][]handler.TagRef) error {
	root := newXMLNode("Navigation Index")
	root.Children = []*xmlNode{
		g.fileSystemIndex(fsIndex),
		g.keywordIndex(entries),
		g.tagIndex(tags),
	}
	doc := xmlMap{Version: "freeplane 1.12.1", Root: root}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mind map: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// fileSystemIndex mirrors the directory tree of the indexed files,
// stripping the path prefix they all share.
func (g *Generator) fileSystemIndex(fsIndex map[string][]*hierarchy.Node) *xmlNode {
	section := newXMLNode("File System Index")

	files := make([]string, 0, len(fsIndex))
	outAbs, _ := filepath.Abs(g.OutputFile)
	for f := range fsIndex {
		abs, err := filepath.Abs(f)
		if err == nil && g.OutputFile != "" && abs == outAbs {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return section
	}

	prefix := commonDirPrefix(files)
	tree := newDirTree()
	for _, f := range files {
		rel := strings.TrimPrefix(f, prefix)
		rel = strings.TrimPrefix(rel, string(filepath.Separator))
		tree.insert(splitPath(rel), f, fsIndex[f])
	}
	tree.render(section)
	return section
}

type dirTree struct {
	dirs  map[string]*dirTree
	files []fileEntry
}

type fileEntry struct {
	name  string
	path  string
	roots []*hierarchy.Node
}

func newDirTree() *dirTree { return &dirTree{dirs: map[string]*dirTree{}} }

func (t *dirTree) insert(parts []string, path string, roots []*hierarchy.Node) {
	if len(parts) == 1 {
		t.files = append(t.files, fileEntry{name: parts[0], path: path, roots: roots})
		return
	}
	sub, ok := t.dirs[parts[0]]
	if !ok {
		sub = newDirTree()
		t.dirs[parts[0]] = sub
	}
	sub.insert(parts[1:], path, roots)
}

// render emits directories first, then files, each alphabetically.
func (t *dirTree) render(parent *xmlNode) {
	dirNames := make([]string, 0, len(t.dirs))
	for d := range t.dirs {
		dirNames = append(dirNames, d)
	}
	sort.Strings(dirNames)
	for _, d := range dirNames {
		n := newXMLNode(d + "/")
		t.dirs[d].render(n)
		parent.Children = append(parent.Children, n)
	}

	sort.Slice(t.files, func(i, j int) bool { return t.files[i].name < t.files[j].name })
	for _, fe := range t.files {
		n := newXMLNode(fe.name)
		n.Link = fe.path
		for _, root := range fe.roots {
			n.Children = append(n.Children, hierarchyNode(fe.path, root))
		}
		parent.Children = append(parent.Children, n)
	}
}

// hierarchyNode converts a parsed document node, linking back into the
// source file by node ID fragment.
func hierarchyNode(file string, n *hierarchy.Node) *xmlNode {
	out := newXMLNode(truncate(n.Label(), 100))
	out.Link = file + "#" + n.ID
	for _, child := range n.Children {
		out.Children = append(out.Children, hierarchyNode(file, child))
	}
	return out
}

// keywordIndex mirrors the keyword file hierarchy; leaf entries expand
// into their per-file search results.
func (g *Generator) keywordIndex(entries []*keywords.Entry) *xmlNode {
	section := newXMLNode("Keyword Index")
	sorted := make([]*keywords.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Text) < strings.ToLower(sorted[j].Text)
	})
	for _, e := range sorted {
		section.Children = append(section.Children, g.entryNode(e))
	}
	return section
}

func (g *Generator) entryNode(e *keywords.Entry) *xmlNode {
	n := newXMLNode(e.DisplayName())

	if !e.IsLeaf {
		children := make([]*keywords.Entry, len(e.Children))
		copy(children, e.Children)
		sort.SliceStable(children, func(i, j int) bool {
			return strings.ToLower(children[i].Text) < strings.ToLower(children[j].Text)
		})
		for _, child := range children {
			n.Children = append(n.Children, g.entryNode(child))
		}
		return n
	}

	files := make([]string, 0, len(e.Results))
	for f := range e.Results {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fileNode := newXMLNode(filepath.Base(f))
		fileNode.Link = f
		for _, r := range e.Results[f] {
			match := newXMLNode(truncate(matchLabel(r.Node, r.MatchedContent), 100))
			match.Link = f + "#" + r.Node.ID
			fileNode.Children = append(fileNode.Children, match)
		}
		n.Children = append(n.Children, fileNode)
	}
	return n
}

func matchLabel(n *hierarchy.Node, content string) string {
	if n.Text != "" {
		return n.Text
	}
	return content
}

// tagIndex lists every tag with the files and nodes that carry it.
func (g *Generator) tagIndex(tags map[string][]handler.TagRef) *xmlNode {
	section := newXMLNode("Tag Index")

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	for _, name := range names {
		tagNode := newXMLNode("#" + name)

		byFile := map[string][]handler.TagRef{}
		for _, ref := range tags[name] {
			byFile[ref.File] = append(byFile[ref.File], ref)
		}
		files := make([]string, 0, len(byFile))
		for f := range byFile {
			files = append(files, f)
		}
		sort.Strings(files)

		for _, f := range files {
			fileNode := newXMLNode(filepath.Base(f))
			fileNode.Link = f
			refs := byFile[f]
			sort.SliceStable(refs, func(i, j int) bool { return refs[i].NodeText < refs[j].NodeText })
			for _, ref := range refs {
				m := newXMLNode(truncate(ref.NodeText, 100))
				if ref.NodeID != "" {
					m.Link = f + "#" + ref.NodeID
				}
				fileNode.Children = append(fileNode.Children, m)
			}
			tagNode.Children = append(tagNode.Children, fileNode)
		}
		section.Children = append(section.Children, tagNode)
	}
	return section
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// commonDirPrefix finds the directory prefix shared by every path.
func commonDirPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for prefix != "" && prefix != "." && prefix != string(filepath.Separator) {
			if dir == prefix || strings.HasPrefix(dir, prefix+string(filepath.Separator)) {
				break
			}
			prefix = filepath.Dir(prefix)
		}
	}
	if prefix == "." {
		return ""
	}
	return prefix
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}
