package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

func TestHttpStatusForDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{"validation", core.ErrValidation("BAD_INPUT", "bad"), http.StatusUnprocessableEntity, true},
		{"not found", core.ErrNotFound("analysis", "x"), http.StatusNotFound, true},
		{"rate limit", core.ErrRateLimit("slow down"), http.StatusTooManyRequests, true},
		{"timeout", core.ErrTimeout("timed out"), http.StatusGatewayTimeout, true},
		{"state (default)", core.ErrState("BAD_STATE", "error"), http.StatusInternalServerError, true},
		{"wrapped", fmt.Errorf("outer: %w", core.ErrValidation("X", "y")), http.StatusUnprocessableEntity, true},
		{"non-domain error", errors.New("plain"), 0, false},
		{"nil error", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := httpStatusForDomainError(tt.err)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestRespondDomainError(t *testing.T) {
	s := &Server{logger: nopLogger()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantCode   string
		wantRetry  string
	}{
		{
			name:       "validation exposes message and details",
			err:        core.ErrValidation(core.CodeInvalidScope, "bad scope").WithDetail("geographic_scope", "cosmic"),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "bad scope",
			wantCode:   core.CodeInvalidScope,
		},
		{
			name:       "internal hides message",
			err:        core.ErrState(core.CodeHistoryFailed, "disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
			wantCode:   core.CodeHistoryFailed,
			wantRetry:  "1",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("analysis: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "analysis: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.respondDomainError(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantStatus >= 500 && body.Details != nil {
				t.Errorf("details leaked on %d: %v", tt.wantStatus, body.Details)
			}
		})
	}
}
