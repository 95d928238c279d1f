package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/kbindex/internal/handler"
	"github.com/dgallion1/kbindex/internal/search"
)

// searchMatch is one matched node in the JSON response.
type searchMatch struct {
	File       string   `json:"file"`
	NodeID     string   `json:"node_id"`
	NodeText   string   `json:"node_text"`
	Content    string   `json:"content,omitempty"`
	Link       string   `json:"link,omitempty"`
	SearchPath []string `json:"search_path"`
}

// handleSearch runs a hierarchical search. The q parameter is a
// colon-separated keyword sequence, e.g. q=async:function.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	sequence := search.SplitSequence(q)

	handlers := s.ix.Registry().Map(s.files)
	results, err := s.ix.Engine().SearchSequence(r.Context(), s.files, sequence, handlers)
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	var agg search.Aggregator
	flat := agg.Flatten(results)
	matches := make([]searchMatch, 0, len(flat))
	for _, res := range flat {
		m := searchMatch{
			File:       res.File,
			NodeID:     res.Node.ID,
			NodeText:   res.Node.Label(),
			Content:    res.MatchedContent,
			SearchPath: res.SearchPath,
		}
		if linker, ok := handlers[res.File].(handler.Linker); ok {
			m.Link = linker.Link(res.File, res.Node.ID)
		}
		matches = append(matches, m)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":   q,
		"files":   len(results),
		"matches": matches,
	})
}

// handleFiles lists the indexed file set.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	type fileInfo struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	out := make([]fileInfo, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, fileInfo{Path: f, Name: filepath.Base(f)})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"files": out, "count": len(out)})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
