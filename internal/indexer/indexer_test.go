package indexer

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/kbindex/internal/config"
)

type parsedNode struct {
	Text     string       `xml:"TEXT,attr"`
	Link     string       `xml:"LINK,attr"`
	Children []parsedNode `xml:"node"`
}

type parsedMap struct {
	Root parsedNode `xml:"node"`
}

func find(n parsedNode, text string) (parsedNode, bool) {
	if n.Text == text {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := find(c, text); ok {
			return found, true
		}
	}
	return parsedNode{}, false
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Directories.Include = []string{dir}
	cfg.Output.File = filepath.Join(dir, "index.mm")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte(`# Functions

General function basics. #guide

## Async

An async function definition example.
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.mm"), []byte(
		`<map version="freeplane 1.12.1"><node ID="ID_1" TEXT="Kernel" TAGS="arm"><node ID="ID_2" TEXT="async function definition"/></node></map>`), 0o644))

	kwFile := filepath.Join(dir, "keywords.txt")
	require.NoError(t, os.WriteFile(kwFile, []byte("Concepts\n\tasync:definition\n"), 0o644))

	cfg := testConfig(dir)
	cfg.Keywords.Files = []string{kwFile}

	ix, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, ix.Run(context.Background()))

	data, err := os.ReadFile(cfg.Output.File)
	require.NoError(t, err)
	var doc parsedMap
	require.NoError(t, xml.Unmarshal(data, &doc))

	// File system index carries both files.
	_, ok := find(doc.Root, "guide.md")
	assert.True(t, ok, "guide.md in file system index")
	_, ok = find(doc.Root, "map.mm")
	assert.True(t, ok, "map.mm in file system index")

	// The keyword search found matches in both formats.
	entry, ok := find(doc.Root, "async → definition")
	require.True(t, ok, "keyword entry rendered")
	assert.Len(t, entry.Children, 2, "one file node per matching file")

	// Tags from both the markdown hashtag and the mindmap TAGS attribute.
	_, ok = find(doc.Root, "#guide")
	assert.True(t, ok)
	_, ok = find(doc.Root, "#arm")
	assert.True(t, ok)
}

func TestRunWithoutKeywords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\n"), 0o644))

	ix, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	require.NoError(t, ix.Run(context.Background()))

	_, err = os.Stat(filepath.Join(dir, "index.mm"))
	assert.NoError(t, err)
}

func TestRunSurvivesUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.md"), []byte("# Good\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mm"), []byte("<map><node"), 0o644))

	ix, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	require.NoError(t, ix.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "index.mm"))
	require.NoError(t, err)
	var doc parsedMap
	require.NoError(t, xml.Unmarshal(data, &doc))
	_, ok := find(doc.Root, "good.md")
	assert.True(t, ok)
}

func TestNewRejectsUnknownHandler(t *testing.T) {
	cfg := config.Default()
	cfg.FileTypes["weird"] = config.FileType{Extensions: []string{".w"}, Handler: "asciidoc"}

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weird")
}

func TestDiscoverHonorsExcludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.md"), []byte("# K\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "skip.md"), []byte("# S\n"), 0o644))

	ix, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	files, err := ix.Discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.md", filepath.Base(files[0]))
}
