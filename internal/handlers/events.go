package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jenyyy4/gigflow/internal/notify"
)

const heartbeatInterval = 30 * time.Second

// EventsHandler отдаёт поток событий пользователя по SSE (GET /api/events)
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if h.Hub == nil {
		fail(w, http.StatusServiceUnavailable, "Event stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		fail(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := h.Hub.Subscribe(user.ID)
	defer cancel()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-events:
			if err := writeSSEEvent(w, e); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEEvent пишет событие в формате text/event-stream
func writeSSEEvent(w io.Writer, e notify.Event) error {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil // кривой payload пропускаем, поток не рвём
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
	return err
}
