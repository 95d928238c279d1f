package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/kbindex/internal/hierarchy"
)

// Result is one node matched by a keyword sequence.
type Result struct {
	File           string
	Node           *hierarchy.Node
	MatchedContent string
	SearchPath     []string // the keywords that led here, in order
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %s (Path: %s)", r.File, r.Node.Label(), strings.Join(r.SearchPath, " -> "))
}

// SortKey selects the ordering used by Aggregator.Sort.
type SortKey string

const (
	SortByFile       SortKey = "file_path"
	SortByNodeText   SortKey = "node_text"
	SortBySearchPath SortKey = "search_path"
)

// Aggregator organizes search results for downstream reporting.
type Aggregator struct{}

// Flatten merges a per-file result map into one list, in file-name order.
func (Aggregator) Flatten(results map[string][]Result) []Result {
	files := make([]string, 0, len(results))
	for f := range results {
		files = append(files, f)
	}
	sort.Strings(files)

	var out []Result
	for _, f := range files {
		out = append(out, results[f]...)
	}
	return out
}

// Sort orders results by the given key; an unknown key leaves the input
// order untouched.
func (Aggregator) Sort(results []Result, by SortKey) []Result {
	out := make([]Result, len(results))
	copy(out, results)

	switch by {
	case SortByFile:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].File != out[j].File {
				return out[i].File < out[j].File
			}
			return out[i].Node.Label() < out[j].Node.Label()
		})
	case SortByNodeText:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Node.Label() != out[j].Node.Label() {
				return out[i].Node.Label() < out[j].Node.Label()
			}
			return out[i].File < out[j].File
		})
	case SortBySearchPath:
		sort.SliceStable(out, func(i, j int) bool {
			if len(out[i].SearchPath) != len(out[j].SearchPath) {
				return len(out[i].SearchPath) < len(out[j].SearchPath)
			}
			if out[i].File != out[j].File {
				return out[i].File < out[j].File
			}
			return out[i].Node.Label() < out[j].Node.Label()
		})
	}
	return out
}

// FilterByExtension keeps results whose file carries one of the extensions.
func (Aggregator) FilterByExtension(results []Result, extensions []string) []Result {
	var out []Result
	for _, r := range results {
		for _, ext := range extensions {
			if strings.HasSuffix(r.File, ext) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Deduplicate removes repeated (file, node) results, keeping first seen.
func (Aggregator) Deduplicate(results []Result) []Result {
	type key struct{ file, id string }
	seen := map[key]bool{}
	var out []Result
	for _, r := range results {
		k := key{r.File, r.Node.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
