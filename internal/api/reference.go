package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
)

// ReferenceResponse describes the loaded reference dataset.
type ReferenceResponse struct {
	Path       string                `json:"path,omitempty"`
	Count      int                   `json:"count"`
	Categories map[string]int        `json:"categories"`
	Events     []core.ReferenceEvent `json:"events"`
}

type pathSource interface {
	Path() string
}

// handleReference returns the reference dataset: GET /api/v1/reference.
// The body carries a strong ETag so pollers can revalidate cheaply after a
// hot reload.
func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	src := s.analyzer.Reference()
	evs := append([]core.ReferenceEvent(nil), src.Events()...)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Name < evs[j].Name })

	resp := ReferenceResponse{
		Count:      len(evs),
		Categories: make(map[string]int),
		Events:     evs,
	}
	if p, ok := src.(pathSource); ok {
		resp.Path = p.Path()
	}
	for c, n := range reference.Counts(evs) {
		resp.Categories[string(c)] = n
	}

	body, err := json.Marshal(resp)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	etag := config.CalculateETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if match := r.Header.Get("If-None-Match"); match != "" && (match == etag || match == "*") {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
