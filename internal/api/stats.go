package api

import (
	"bytes"
	"net/http"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
)

// handleStats reports in-process analysis activity: GET /api/v1/stats,
// with ?format=text for the plain-text report.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		s.respondError(w, http.StatusNotFound, "metrics are not enabled")
		return
	}

	gen := service.NewReportGenerator(s.metrics)
	var buf bytes.Buffer
	contentType := "application/json"

	switch format := r.URL.Query().Get("format"); format {
	case "", core.FormatJSON:
		if err := gen.GenerateJSONReport(&buf); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	case core.FormatText:
		if err := gen.GenerateTextReport(&buf); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
		contentType = "text/plain; charset=utf-8"
	default:
		s.respondDomainError(w, r, core.ErrValidation(core.CodeInvalidFormat, "format must be json or text").
			WithDetail("format", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
