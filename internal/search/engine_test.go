package search

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/kbindex/internal/handler"
	"github.com/dgallion1/kbindex/internal/hierarchy"
)

// fakeHandler serves in-memory trees and counts subtree searches so tests
// can assert which steps actually ran.
type fakeHandler struct {
	trees       map[string][]*hierarchy.Node
	failFiles   map[string]bool
	searchCalls atomic.Int64
}

func (f *fakeHandler) Name() string                         { return "fake" }
func (f *fakeHandler) Extensions() []string                 { return []string{".fake"} }
func (f *fakeHandler) CanHandle(p string) bool              { return true }
func (f *fakeHandler) NodeContent(n *hierarchy.Node) string { return n.Content }

func (f *fakeHandler) RootNodes(path string) ([]*hierarchy.Node, error) {
	if f.failFiles[path] {
		return nil, fmt.Errorf("unparsable: %s", path)
	}
	return f.trees[path], nil
}

func (f *fakeHandler) SubtreeSearch(n *hierarchy.Node, pattern *regexp.Regexp, includeDescendants bool) []*hierarchy.Node {
	f.searchCalls.Add(1)
	return handler.SearchSubtree(f.NodeContent, n, pattern, includeDescendants)
}

func node(id, text, content string, children ...*hierarchy.Node) *hierarchy.Node {
	n := &hierarchy.Node{ID: id, Text: text, Content: content}
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// guideTree builds:
//
//	Root("Guide")
//	├── A("Functions",  "function basics")
//	│   └── A1("Async", "async function advanced")
//	│       ├── A1a("Example1", "async definition one")
//	│       └── A1b("Example2", "async definition two")
//	└── B("Classes", "class basics")
func guideTree() *hierarchy.Node {
	return node("root", "Guide", "guide",
		node("A", "Functions", "function basics",
			node("A1", "Async", "async function advanced",
				node("A1a", "Example1", "async definition one"),
				node("A1b", "Example2", "async definition two"),
			),
		),
		node("B", "Classes", "class basics"),
	)
}

func singleFile(root *hierarchy.Node) ([]string, map[string]handler.Handler, *fakeHandler) {
	fh := &fakeHandler{trees: map[string][]*hierarchy.Node{"guide.fake": {root}}}
	return []string{"guide.fake"}, map[string]handler.Handler{"guide.fake": fh}, fh
}

func resultIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Node.ID
	}
	return ids
}

func TestSearchSequence_ConvergingBranchesDeduplicate(t *testing.T) {
	// Both anchor candidates A and A1 narrow to A1 under "async"; the
	// duplicate collapses, so the terminal fan-out reports A1a and A1b
	// exactly once each.
	files, handlers, _ := singleFile(guideTree())
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"function", "async", "definition"}, handlers)
	require.NoError(t, err)
	require.Contains(t, results, "guide.fake")
	assert.Equal(t, []string{"A1a", "A1b"}, resultIDs(results["guide.fake"]))

	for _, r := range results["guide.fake"] {
		assert.Equal(t, []string{"function", "async", "definition"}, r.SearchPath)
	}
}

func TestSearchSequence_SingleTermCompleteness(t *testing.T) {
	// One term collects every matching node across the whole tree.
	files, handlers, _ := singleFile(guideTree())
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"async"}, handlers)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A1a", "A1b"}, resultIDs(results["guide.fake"]))
}

func TestSearchSequence_FirstMatchWins(t *testing.T) {
	// Both children match the middle term; only the first child's subtree
	// survives, so "right-only" is unreachable even though it matches the
	// terminal term.
	root := node("root", "Root", "topic",
		node("L", "Left", "branch here",
			node("L1", "", "payload in left")),
		node("R", "Right", "branch here",
			node("R1", "", "payload right-only")),
	)
	files, handlers, _ := singleFile(root)
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"topic", "branch", "payload"}, handlers)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, resultIDs(results["guide.fake"]))
}

func TestSearchSequence_EarlyAbortSkipsAdapterCalls(t *testing.T) {
	files, handlers, fh := singleFile(guideTree())
	e := NewEngine(nil)

	// Anchor finds nothing, so no later term may trigger a search call
	// beyond the root-level anchor sweep.
	results, err := e.SearchSequence(context.Background(), files, []string{"zzz_no_such_token", "async", "definition"}, handlers)
	require.NoError(t, err)
	assert.Empty(t, results)
	// One call per root for the anchor, nothing for later terms.
	assert.Equal(t, int64(1), fh.searchCalls.Load())
}

func TestSearchSequence_EmptySequence(t *testing.T) {
	files, handlers, fh := singleFile(guideTree())
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, nil, handlers)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), fh.searchCalls.Load())
}

func TestSearchSequence_NoMatchOmitsFile(t *testing.T) {
	files, handlers, _ := singleFile(guideTree())
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"zzz_no_such_token"}, handlers)
	require.NoError(t, err)
	assert.NotContains(t, results, "guide.fake")
	assert.Empty(t, results)
}

func TestSearchSequence_Idempotent(t *testing.T) {
	files, handlers, _ := singleFile(guideTree())
	e := NewEngine(nil)
	seq := []string{"function", "async", "definition"}

	first, err := e.SearchSequence(context.Background(), files, seq, handlers)
	require.NoError(t, err)
	second, err := e.SearchSequence(context.Background(), files, seq, handlers)
	require.NoError(t, err)

	assert.Equal(t, resultIDs(first["guide.fake"]), resultIDs(second["guide.fake"]))
}

func TestSearchSequence_RawAlternation(t *testing.T) {
	root := node("root", "", "intro",
		node("f", "", "the Foo widget"),
		node("b", "", "a bar gadget"),
		node("n", "", "foobar is neither"),
	)
	files, handlers, _ := singleFile(root)
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"foo|bar"}, handlers)
	require.NoError(t, err)
	// Whole-word alternation: "foobar" must not match.
	assert.Equal(t, []string{"f", "b"}, resultIDs(results["guide.fake"]))
}

func TestSearchSequence_InvalidPatternFailsQuery(t *testing.T) {
	files, handlers, fh := singleFile(guideTree())
	e := NewEngine(nil)

	// The malformed second term fails the query even though the anchor
	// term alone would already produce zero candidates.
	_, err := e.SearchSequence(context.Background(), files, []string{"zzz_no_such_token", "("}, handlers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search term")
	assert.Equal(t, int64(0), fh.searchCalls.Load())
}

func TestSearchSequence_AdapterFailureSkipsFile(t *testing.T) {
	good := guideTree()
	fh := &fakeHandler{
		trees:     map[string][]*hierarchy.Node{"good.fake": {good}},
		failFiles: map[string]bool{"bad.fake": true},
	}
	files := []string{"bad.fake", "good.fake"}
	handlers := map[string]handler.Handler{"bad.fake": fh, "good.fake": fh}
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"async"}, handlers)
	require.NoError(t, err)
	assert.NotContains(t, results, "bad.fake")
	assert.Equal(t, []string{"A1", "A1a", "A1b"}, resultIDs(results["good.fake"]))
}

func TestSearchSequence_MultipleFiles(t *testing.T) {
	treeA := node("a-root", "", "alpha payload")
	treeB := node("b-root", "", "alpha other")
	fh := &fakeHandler{trees: map[string][]*hierarchy.Node{
		"a.fake": {treeA},
		"b.fake": {treeB},
	}}
	files := []string{"a.fake", "b.fake"}
	handlers := map[string]handler.Handler{"a.fake": fh, "b.fake": fh}
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"alpha"}, handlers)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"a-root"}, resultIDs(results["a.fake"]))
	assert.Equal(t, []string{"b-root"}, resultIDs(results["b.fake"]))
}

func TestSearchSequence_FileWithoutHandlerSkipped(t *testing.T) {
	files, handlers, _ := singleFile(guideTree())
	files = append(files, "orphan.fake")
	e := NewEngine(nil)

	results, err := e.SearchSequence(context.Background(), files, []string{"async"}, handlers)
	require.NoError(t, err)
	assert.NotContains(t, results, "orphan.fake")
}

func TestSearchMultiple_BadSequenceDoesNotAbortSiblings(t *testing.T) {
	files, handlers, _ := singleFile(guideTree())
	e := NewEngine(nil)

	all, err := e.SearchMultiple(context.Background(), files, [][]string{
		{"("},
		{"async"},
	}, handlers)
	require.NoError(t, err)
	assert.NotContains(t, all, "(")
	require.Contains(t, all, "async")
	assert.Equal(t, []string{"A1", "A1a", "A1b"}, resultIDs(all["async"]["guide.fake"]))
}

func TestSplitSequence(t *testing.T) {
	assert.Equal(t, []string{"async", "function"}, SplitSequence("async:function"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitSequence(" a : b : c "))
	assert.Equal(t, []string{"solo"}, SplitSequence("solo"))
}
