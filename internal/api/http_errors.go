package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatRateLimit:
		return http.StatusTooManyRequests, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps err onto a status code. Internal failures are
// logged and their message is not echoed to the client. Retryable errors
// carry a Retry-After hint.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	if core.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	body := ErrorResponse{Error: err.Error()}
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		body.Error = domErr.Message
		body.Code = domErr.Code
		if status < http.StatusInternalServerError {
			body.Details = domErr.Details
		}
	}
	if status == http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	s.respondJSON(w, status, body)
}
