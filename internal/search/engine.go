// Package search implements the hierarchical context-sensitive search
// engine: an ordered keyword sequence progressively narrows matches through
// each document's tree structure.
package search

import (
	"context"
	"log/slog"
	"regexp"
	"runtime"
	"strings"

	"github.com/dgallion1/kbindex/internal/handler"
	"github.com/dgallion1/kbindex/internal/hierarchy"
	"golang.org/x/sync/errgroup"
)

// Engine drives multi-term narrowing over files and their trees. It holds
// no per-query state; queries are stateless and reentrant.
type Engine struct {
	log     *slog.Logger
	debug   bool
	workers int
}

// NewEngine creates an engine logging through log.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log.With("component", "search"), workers: runtime.GOMAXPROCS(0)}
}

// SetDebug enables per-step debug logging.
func (e *Engine) SetDebug(debug bool) { e.debug = debug }

// SetWorkers bounds the number of files searched concurrently.
func (e *Engine) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// candidate is a (node, searchPath) pair carried between narrowing steps.
type candidate struct {
	node *hierarchy.Node
	path []string
}

// SearchSequence executes a hierarchical search for the keyword sequence
// over files, using the per-file handler map.
//
// The first term searches every tree exhaustively. Each further term
// narrows every surviving candidate within its own subtree: intermediate
// terms keep at most the first-matching descendant path, the last term
// collects every match in the remaining subtree. Files without surviving
// candidates are absent from the result map.
//
// A file whose handler fails is skipped; a term that is not a valid
// pattern fails the whole query.
func (e *Engine) SearchSequence(ctx context.Context, files []string, sequence []string, handlers map[string]handler.Handler) (map[string][]Result, error) {
	results := make(map[string][]Result)
	if len(sequence) == 0 {
		return results, nil
	}

	// All terms compile before any tree is touched, so a malformed term
	// fails the query even when an earlier term would find nothing.
	patterns := make([]*regexp.Regexp, len(sequence))
	for i, term := range sequence {
		p, err := CompileTermPattern(term)
		if err != nil {
			return nil, err
		}
		patterns[i] = p
	}

	if e.debug {
		e.log.Debug("searching sequence", "terms", strings.Join(sequence, ":"), "files", len(files))
	}

	// Each file narrows independently; results land in the slot matching
	// the caller's file order, so assembly reproduces the serial ordering.
	perFile := make([][]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, file := range files {
		h, ok := handlers[file]
		if !ok {
			continue
		}
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = e.searchFile(file, h, sequence, patterns)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, file := range files {
		if len(perFile[i]) > 0 {
			results[file] = perFile[i]
		}
	}
	return results, nil
}

func (e *Engine) searchFile(file string, h handler.Handler, sequence []string, patterns []*regexp.Regexp) []Result {
	roots, err := h.RootNodes(file)
	if err != nil {
		e.log.Warn("skipping file", "file", file, "error", err)
		return nil
	}

	// Anchor term: exhaustive search over every tree.
	var candidates []candidate
	for _, root := range roots {
		for _, m := range h.SubtreeSearch(root, patterns[0], true) {
			candidates = append(candidates, candidate{node: m, path: []string{sequence[0]}})
		}
	}
	candidates = dedupeCandidates(candidates)
	if e.debug {
		e.log.Debug("anchor term", "file", file, "term", sequence[0], "candidates", len(candidates))
	}

	// Refinement loop: intermediate terms narrow, the last term fans out.
	for k := 1; k < len(sequence) && len(candidates) > 0; k++ {
		isLast := k == len(sequence)-1
		var next []candidate
		for _, c := range candidates {
			for _, m := range h.SubtreeSearch(c.node, patterns[k], isLast) {
				path := make([]string, len(c.path)+1)
				copy(path, c.path)
				path[len(c.path)] = sequence[k]
				next = append(next, candidate{node: m, path: path})
			}
		}
		candidates = dedupeCandidates(next)
		if e.debug {
			e.log.Debug("refined term", "file", file, "term", sequence[k], "last", isLast, "candidates", len(candidates))
		}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{
			File:           file,
			Node:           c.node,
			MatchedContent: h.NodeContent(c.node),
			SearchPath:     c.path,
		})
	}
	return results
}

// dedupeCandidates drops candidates whose node was already produced by an
// earlier branch at this step, keeping the first occurrence in document
// order. Converging narrowing branches denote the same context.
func dedupeCandidates(cands []candidate) []candidate {
	if len(cands) < 2 {
		return cands
	}
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if seen[c.node.ID] {
			continue
		}
		seen[c.node.ID] = true
		out = append(out, c)
	}
	return out
}

// SearchSingle searches one keyword across files.
func (e *Engine) SearchSingle(ctx context.Context, files []string, keyword string, handlers map[string]handler.Handler) (map[string][]Result, error) {
	return e.SearchSequence(ctx, files, []string{keyword}, handlers)
}

// SearchMultiple runs several sequences, keyed by their colon-joined form.
// A sequence that fails to compile is reported and skipped; it does not
// abort its siblings.
func (e *Engine) SearchMultiple(ctx context.Context, files []string, sequences [][]string, handlers map[string]handler.Handler) (map[string]map[string][]Result, error) {
	all := make(map[string]map[string][]Result)
	for _, sequence := range sequences {
		id := strings.Join(sequence, ":")
		results, err := e.SearchSequence(ctx, files, sequence, handlers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			e.log.Error("search sequence failed", "sequence", id, "error", err)
			continue
		}
		if len(results) > 0 {
			all[id] = results
		}
	}
	return all, nil
}

// SplitSequence turns a keyword-file entry into its term sequence: terms
// are colon-separated and trimmed.
func SplitSequence(entry string) []string {
	parts := strings.Split(entry, ":")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
