package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tallr-app/tallr/internal/events"
)

// heartbeatInterval keeps idle SSE connections alive through proxies and
// lets dead clients surface as write errors.
const heartbeatInterval = 30 * time.Second

// handleSSE streams snapshot, notification and tray events to the UI shell.
// EventSource clients cannot set headers, so the token may arrive as a
// query parameter; the auth middleware accepts both.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	bus := s.publisher.Bus()
	eventCh := bus.Subscribe(events.TypeSnapshot, events.TypeNotification, events.TypeTray)
	defer bus.Unsubscribe(eventCh)

	s.logger.Info("SSE client connected", "remote_addr", r.RemoteAddr)

	// Initial snapshot so a client that reconnects mid-session does not
	// wait for the next mutation to learn the current state.
	s.sendSSEEvent(w, flusher, events.TypeSnapshot, s.store.Snapshot())

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case event, ok := <-eventCh:
			if !ok {
				s.logger.Info("event bus closed, ending SSE stream")
				return
			}
			s.sendEventToClient(w, flusher, event)
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

	// SSE format: event: type\ndata: json\n\n
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// sendEventToClient unwraps a bus event into its wire payload.
func (s *Server) sendEventToClient(w http.ResponseWriter, flusher http.Flusher, event events.Event) {
	var payload interface{}

	switch e := event.(type) {
	case events.SnapshotEvent:
		payload = e.Snapshot
	case events.NotificationEvent:
		payload = e.Notification
	case events.TrayEvent:
		payload = e.Tray
	default:
		payload = map[string]interface{}{"timestamp": event.Timestamp()}
	}

	s.sendSSEEvent(w, flusher, event.EventType(), payload)
}
