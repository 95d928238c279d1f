// Package keywords parses the tab-indented keyword files that drive the
// Keyword Index: leaf entries are search patterns, interior entries are
// organizational categories.
package keywords

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/kbindex/internal/search"
)

// Entry is one line of a keyword file, positioned in its hierarchy.
type Entry struct {
	Text     string
	Level    int
	IsLeaf   bool // search pattern, not a category
	Children []*Entry
	Parent   *Entry
	Line     int

	// Results holds the search output for leaf entries once the indexer
	// has executed them.
	Results map[string][]search.Result
}

// AddChild appends child and marks this entry as a category.
func (e *Entry) AddChild(child *Entry) {
	child.Parent = e
	e.Children = append(e.Children, child)
	e.IsLeaf = false
}

// SearchSequences returns the term sequences of this entry's subtree.
// Leaf text splits on ':' into a multi-term sequence.
func (e *Entry) SearchSequences() [][]string {
	if e.IsLeaf {
		return [][]string{search.SplitSequence(e.Text)}
	}
	var out [][]string
	for _, child := range e.Children {
		out = append(out, child.SearchSequences()...)
	}
	return out
}

// DisplayName renders colon sequences with arrows for presentation.
func (e *Entry) DisplayName() string {
	return strings.ReplaceAll(e.Text, ":", " → ")
}

// Parser reads tab-indented keyword files. A tab is one level; four spaces
// count as one tab.
type Parser struct{}

// ParseFile parses one keyword file into its root entries.
func (p *Parser) ParseFile(path string) ([]*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	return p.ParseLines(strings.Split(string(data), "\n")), nil
}

// ParseLines parses lines into root entries. Blank lines and # comments
// are skipped; leafness is settled once all children are seen.
func (p *Parser) ParseLines(lines []string) []*Entry {
	var roots []*Entry
	var stack []*Entry

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		level := indentLevel(line)
		content := strings.TrimLeft(line, "\t ")
		content = strings.TrimRight(content, "\r\n\t ")
		if content == "" || strings.HasPrefix(content, "#") {
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}

		entry := &Entry{Text: content, Level: level, IsLeaf: true, Line: i + 1}
		if len(stack) > 0 {
			stack[len(stack)-1].AddChild(entry)
		} else {
			roots = append(roots, entry)
		}
		stack = append(stack, entry)
	}
	return roots
}

func indentLevel(line string) int {
	quarters := 0
	for _, r := range line {
		switch r {
		case '\t':
			quarters += 4
		case ' ':
			quarters++
		default:
			return quarters / 4
		}
	}
	return quarters / 4
}

// Validate walks the entries and returns structural warnings.
func (p *Parser) Validate(entries []*Entry) []string {
	var warnings []string
	var check func(e *Entry, depth int)
	check = func(e *Entry, depth int) {
		if strings.TrimSpace(e.Text) == "" {
			warnings = append(warnings, fmt.Sprintf("empty entry at line %d", e.Line))
		}
		if !e.IsLeaf && strings.Contains(e.Text, ":") {
			warnings = append(warnings, fmt.Sprintf("non-leaf entry contains colon at line %d: %s", e.Line, e.Text))
		}
		if depth == 7 {
			warnings = append(warnings, fmt.Sprintf("very deep nesting (level %d) at line %d", depth, e.Line))
		}
		for _, child := range e.Children {
			check(child, depth+1)
		}
	}
	for _, e := range entries {
		check(e, 1)
	}
	return warnings
}

// Load parses several keyword files. Per-file failures become warnings so
// one bad file cannot sink the run.
func Load(paths []string, log *slog.Logger) ([]*Entry, []string) {
	var parser Parser
	var entries []*Entry
	var warnings []string

	for _, path := range paths {
		fileEntries, err := parser.ParseFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		for _, w := range parser.Validate(fileEntries) {
			warnings = append(warnings, fmt.Sprintf("%s: %s", path, w))
		}
		entries = append(entries, fileEntries...)
		if log != nil {
			log.Debug("loaded keyword file", "path", path, "roots", len(fileEntries))
		}
	}
	return entries, warnings
}

const sampleKeywords = `# Sample keyword file
# Lines starting with # are comments
# Use tabs for indentation
# Leaf entries (no children) are search patterns
# Non-leaf entries are organizational categories

Programming Concepts
	Functions
		function:definition
		async:function
		lambda:function
	Classes
		class:inheritance
		abstract:class
		interface:implementation
	Error Handling
		try:catch:exception
		error:handling:best:practices

Documentation
	API Documentation
		api:reference
		endpoint:documentation
	User Guides
		tutorial:beginner
		guide:advanced:usage
`

// WriteSample writes a reference keyword file.
func WriteSample(path string) error {
	return os.WriteFile(path, []byte(sampleKeywords), 0o644)
}
