package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/pale/internal/pipeline"
	"github.com/dgallion1/pale/internal/records"
)

type outlineSection struct {
	Header      string   `json:"header"`
	Subsections []string `json:"subsections"`
}

type orphanClip struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// handleOutline parses a champion page synchronously and returns its
// section tree, per-section clip counts and unassigned clips.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	champion, ok := championParam(r)
	if !ok {
		jsonError(w, "invalid champion name", http.StatusBadRequest)
		return
	}

	res, err := s.orchestrator.Worker().Process(r.Context(), pipeline.NewJob(champion))
	if err != nil {
		jsonError(w, err.Error(), fetchErrorStatus(err))
		return
	}

	sections := make([]outlineSection, 0, len(res.Outline.Tree))
	for _, sec := range res.Outline.Tree {
		subs := make([]string, 0, len(sec.Elements))
		for _, el := range sec.Elements {
			subs = append(subs, records.Normalize(el.Text))
		}
		sections = append(sections, outlineSection{Header: records.Normalize(sec.Header.Text), Subsections: subs})
	}
	orphans := make([]orphanClip, 0, len(res.Outline.Orphans))
	for _, n := range res.Outline.Orphans {
		orphans = append(orphans, orphanClip{Text: records.Normalize(n.Text), Source: n.Payload})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"champion":     champion,
		"title":        res.Title,
		"content_hash": res.ContentHash,
		"sections":     sections,
		"rows":         res.Outline.Rows(),
		"duplicates":   res.Duplicates(),
		"orphans":      orphans,
	})
}
