package handler

import (
	"errors"
	"fmt"
)

// ErrNoHandler is returned when no registered handler accepts a file.
var ErrNoHandler = errors.New("no handler for file")

// Registry holds the configured handlers. It is constructed once and passed
// by reference wherever handlers are needed; there is no process-wide state.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates a registry over the given handlers. Registration
// order matters: ForFile returns the first handler that accepts a file.
func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// New constructs a handler by its configuration name.
func New(name string, extensions []string) (Handler, error) {
	switch name {
	case "freeplane":
		return NewFreeplane(extensions...), nil
	case "markdown":
		return NewMarkdown(extensions...), nil
	case "html":
		return NewHTML(extensions...), nil
	case "docx":
		return NewDOCX(extensions...), nil
	case "pdf":
		return NewPDF(extensions...), nil
	case "text":
		return NewText(extensions...), nil
	default:
		return nil, fmt.Errorf("unknown handler: %s", name)
	}
}

// Names lists the handler names New accepts.
func Names() []string {
	return []string{"freeplane", "markdown", "html", "docx", "pdf", "text"}
}

// ForFile returns the first handler that accepts path.
func (r *Registry) ForFile(path string) (Handler, bool) {
	for _, h := range r.handlers {
		if h.CanHandle(path) {
			return h, true
		}
	}
	return nil, false
}

// Map assigns a handler to every file that has one.
func (r *Registry) Map(files []string) map[string]Handler {
	out := make(map[string]Handler, len(files))
	for _, f := range files {
		if h, ok := r.ForFile(f); ok {
			out[f] = h
		}
	}
	return out
}

// Extensions returns the union of all registered handlers' extensions.
func (r *Registry) Extensions() map[string]bool {
	out := map[string]bool{}
	for _, h := range r.handlers {
		for _, ext := range h.Extensions() {
			out[ext] = true
		}
	}
	return out
}
