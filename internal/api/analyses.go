package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service/report"
)

// decodeRequest reads a JSON AnalyzeRequest. It reports false after writing
// the error response itself.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (service.AnalyzeRequest, bool) {
	var req service.AnalyzeRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

// handleAnalyze runs one analysis: POST /api/v1/analyses.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleCompare ranks a batch of scenarios: POST /api/v1/scenarios/compare.
// The body is the same YAML or JSON document the CLI accepts.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	scenarios, err := service.ParseScenarios(data)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	cmp, err := s.analyzer.CompareScenarios(r.Context(), scenarios)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cmp)
}

// handleReport analyses the posted event and returns the rendered report:
// POST /api/v1/reports?format=json|text.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = core.FormatText
	}
	if format != core.FormatText && format != core.FormatJSON {
		s.respondDomainError(w, r, core.ErrValidation(core.CodeInvalidFormat, "format must be json or text").
			WithDetail("format", format))
		return
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	out, err := report.Render(result, format)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == core.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Analysis-ID", result.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("writing report", "error", err)
	}
}
