// Package indexer orchestrates a full run: discover files, parse their
// hierarchies, execute the keyword searches, collect tags, and write the
// navigation mind map.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/dgallion1/kbindex/internal/config"
	"github.com/dgallion1/kbindex/internal/discover"
	"github.com/dgallion1/kbindex/internal/handler"
	"github.com/dgallion1/kbindex/internal/hierarchy"
	"github.com/dgallion1/kbindex/internal/keywords"
	"github.com/dgallion1/kbindex/internal/mindmap"
	"github.com/dgallion1/kbindex/internal/search"
)

// Indexer runs the index pipeline for one configuration.
type Indexer struct {
	cfg    *config.Config
	reg    *handler.Registry
	engine *search.Engine
	log    *slog.Logger

	// Output overrides cfg.Output.File when set.
	Output string
	Debug  bool
}

// New builds an indexer; the handler registry comes from the configured
// file types.
func New(cfg *config.Config, log *slog.Logger) (*Indexer, error) {
	if log == nil {
		log = slog.Default()
	}
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	engine := search.NewEngine(log)
	if cfg.Workers > 0 {
		engine.SetWorkers(cfg.Workers)
	}
	return &Indexer{
		cfg:    cfg,
		reg:    reg,
		engine: engine,
		log:    log.With("component", "indexer"),
	}, nil
}

func buildRegistry(cfg *config.Config) (*handler.Registry, error) {
	var handlers []handler.Handler
	for name, ft := range cfg.FileTypes {
		h, err := handler.New(ft.Handler, ft.Extensions)
		if err != nil {
			return nil, fmt.Errorf("file type %s: %w", name, err)
		}
		handlers = append(handlers, h)
	}
	return handler.NewRegistry(handlers...), nil
}

// Registry exposes the configured handlers, for serve mode.
func (ix *Indexer) Registry() *handler.Registry { return ix.reg }

// Engine exposes the search engine, for serve mode.
func (ix *Indexer) Engine() *search.Engine { return ix.engine }

// Discover resolves the configured directories to indexable files.
func (ix *Indexer) Discover() ([]string, error) {
	return discover.Files(discover.Options{
		Include:    ix.cfg.Directories.Include,
		Exclude:    ix.cfg.Directories.Exclude,
		Extensions: ix.cfg.Extensions(),
	}, ix.log)
}

// Run executes the whole pipeline and writes the mind map.
func (ix *Indexer) Run(ctx context.Context) error {
	ix.engine.SetDebug(ix.Debug)

	files, err := ix.Discover()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	ix.log.Info("discovered files", "count", len(files))

	handlers := ix.reg.Map(files)

	fsIndex, err := ix.buildFileSystemIndex(ctx, files, handlers)
	if err != nil {
		return err
	}

	entries, err := ix.processKeywords(ctx, files, handlers)
	if err != nil {
		return err
	}

	tags := ix.extractTags(handlers)

	output := ix.Output
	if output == "" {
		output = ix.cfg.Output.File
	}
	gen := &mindmap.Generator{OutputFile: output}
	if err := gen.Create(output, fsIndex, entries, tags); err != nil {
		return fmt.Errorf("write mind map: %w", err)
	}
	ix.log.Info("wrote mind map", "file", output, "files", len(fsIndex), "tags", len(tags))
	return nil
}

// buildFileSystemIndex parses every file's hierarchy on a worker pool.
// Files that fail to parse are logged and left out.
func (ix *Indexer) buildFileSystemIndex(ctx context.Context, files []string, handlers map[string]handler.Handler) (map[string][]*hierarchy.Node, error) {
	workers := ix.cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create parse pool: %w", err)
	}
	defer pool.Release()

	fsIndex := make(map[string][]*hierarchy.Node)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, file := range files {
		h, ok := handlers[file]
		if !ok {
			ix.log.Debug("no handler for file", "file", file)
			continue
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			roots, err := h.RootNodes(file)
			if err != nil {
				ix.log.Warn("parse failed", "file", file, "error", err)
				return
			}
			mu.Lock()
			fsIndex[file] = roots
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			ix.log.Warn("submit parse job", "file", file, "error", submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fsIndex, nil
}

// processKeywords loads the keyword files and executes every leaf entry's
// search sequence. A failing query is logged, not fatal.
func (ix *Indexer) processKeywords(ctx context.Context, files []string, handlers map[string]handler.Handler) ([]*keywords.Entry, error) {
	if len(ix.cfg.Keywords.Files) == 0 {
		return nil, nil
	}

	entries, warnings := keywords.Load(ix.cfg.Keywords.Files, ix.log)
	for _, w := range warnings {
		ix.log.Warn("keyword file issue", "warning", w)
	}

	var exec func(e *keywords.Entry) error
	exec = func(e *keywords.Entry) error {
		if e.IsLeaf {
			sequence := search.SplitSequence(e.Text)
			results, err := ix.engine.SearchSequence(ctx, files, sequence, handlers)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				ix.log.Error("keyword search failed", "keyword", e.Text, "error", err)
				return nil
			}
			e.Results = results
			ix.log.Debug("keyword searched", "keyword", e.Text, "files", len(results))
			return nil
		}
		for _, child := range e.Children {
			if err := exec(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, e := range entries {
		if err := exec(e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// extractTags merges tag references from every handler that supports
// tag extraction.
func (ix *Indexer) extractTags(handlers map[string]handler.Handler) map[string][]handler.TagRef {
	tags := make(map[string][]handler.TagRef)
	for file, h := range handlers {
		te, ok := h.(handler.TagExtractor)
		if !ok {
			continue
		}
		for tag, refs := range te.ExtractTags(file) {
			tag = strings.TrimPrefix(tag, "#")
			tags[tag] = append(tags[tag], refs...)
		}
	}
	return tags
}
