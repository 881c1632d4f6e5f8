package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/playperu/roadrisk/internal/game"
)

// handleEvents streams a session's events. The first event is a "state"
// snapshot so late subscribers can render without an extra GET.
func handleEvents(sessions *game.Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		view, err := sessions.View(id)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		snapshot, _ := json.Marshal(SSEEvent{Type: "state", Session: view})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		fmt.Fprintf(w, "event: state\ndata: %s\n\n", snapshot)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
