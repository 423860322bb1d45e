package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

// heartbeatInterval keeps intermediaries from reaping idle streams.
const heartbeatInterval = 25 * time.Second

type EventsHandler struct {
	service     ports.PollService
	broadcaster ports.Broadcaster
}

func NewEventsHandler(service ports.PollService, broadcaster ports.Broadcaster) *EventsHandler {
	return &EventsHandler{
		service:     service,
		broadcaster: broadcaster,
	}
}

// StreamEvents serves a server-sent event stream that ticks whenever the
// poll changes. Frames carry only a timestamp; clients re-fetch the poll for
// authoritative state. The stream ends on client disconnect or server
// shutdown.
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPollID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrPollNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to get poll", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.broadcaster.Subscribe(poll.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event.At.Format(time.RFC3339))
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
