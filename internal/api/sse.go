package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
)

// sseHeartbeat keeps idle connections open through proxies.
var sseHeartbeat = 15 * time.Second

// handleSSE streams bus events as Server-Sent Events: GET /api/v1/events,
// optionally filtered with ?types=analysis_completed,role_opinion.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if s.eventBus == nil {
		s.respondError(w, http.StatusServiceUnavailable, "event stream not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	types := parseTypes(r.URL.Query().Get("types"))
	eventCh := s.eventBus.Subscribe(types...)
	defer s.eventBus.Unsubscribe(eventCh)

	ctx := r.Context()
	s.logger.Info("SSE client connected", "remote_addr", r.RemoteAddr, "types", types)

	s.sendSSEEvent(w, flusher, "connected", map[string]interface{}{
		"status": "connected",
		"types":  types,
	})

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case event, ok := <-eventCh:
			if !ok {
				s.logger.Info("event bus closed, ending SSE stream")
				return
			}
			s.sendSSEEvent(w, flusher, event.EventType(), event)
		}
	}
}

// sendSSEEvent writes an event to the SSE stream.
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

func parseTypes(raw string) []string {
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
