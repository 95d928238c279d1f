package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByName(t *testing.T) {
	for _, name := range Names() {
		h, err := New(name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, h.Name())
		assert.NotEmpty(t, h.Extensions())
	}

	_, err := New("asciidoc", nil)
	require.Error(t, err)
}

func TestNewCustomExtensions(t *testing.T) {
	h, err := New("markdown", []string{".mdx"})
	require.NoError(t, err)
	assert.Equal(t, []string{".mdx"}, h.Extensions())
}

func TestRegistryForFile(t *testing.T) {
	md := NewMarkdown()
	fp := NewFreeplane()
	reg := NewRegistry(fp, md)

	doc := writeFile(t, "doc.md", "# x\n")
	h, ok := reg.ForFile(doc)
	require.True(t, ok)
	assert.Equal(t, "markdown", h.Name())

	_, ok = reg.ForFile("unknown.xyz")
	assert.False(t, ok)
}

func TestRegistryMap(t *testing.T) {
	reg := NewRegistry(NewMarkdown())
	doc := writeFile(t, "doc.md", "# x\n")

	m := reg.Map([]string{doc, "skip.bin"})
	assert.Contains(t, m, doc)
	assert.NotContains(t, m, "skip.bin")
}

func TestRegistryExtensions(t *testing.T) {
	reg := NewRegistry(NewMarkdown(), NewFreeplane())
	exts := reg.Extensions()
	assert.True(t, exts[".md"])
	assert.True(t, exts[".mm"])
}
