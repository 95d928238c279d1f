// Package discover finds indexable files on disk from include/exclude
// glob patterns.
package discover

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options selects which files a run will index.
type Options struct {
	// Include globs; ** is supported. A bare directory includes its
	// whole subtree.
	Include []string
	// Exclude globs matched against the full path.
	Exclude []string
	// Extensions limits results to these suffixes (with dot). Empty
	// keeps everything the globs produce.
	Extensions []string
}

// Files resolves the options to a sorted, deduplicated list of absolute
// paths. Unreadable directories are logged and skipped.
func Files(opts Options, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	seen := make(map[string]bool)

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		if !matchesExtension(abs, opts.Extensions) || excluded(abs, opts.Exclude) {
			return
		}
		seen[abs] = true
	}

	for _, pattern := range opts.Include {
		info, err := os.Stat(pattern)
		if err == nil && info.IsDir() {
			walkDir(pattern, add, log)
			continue
		}
		if err == nil && info.Mode().IsRegular() {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			log.Warn("bad include pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err == nil && fi.IsDir() {
				walkDir(m, add, log)
			} else {
				add(m)
			}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func walkDir(root string, add func(string), log *slog.Logger) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		add(path)
		return nil
	})
	if err != nil {
		log.Warn("directory walk failed", "root", root, "error", err)
	}
}

func matchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, filepath.ToSlash(path)); err == nil && ok {
			return true
		}
		// Also try matching just the base name for simple patterns.
		if ok, err := doublestar.Match(p, filepath.Base(path)); err == nil && ok {
			return true
		}
	}
	return false
}
