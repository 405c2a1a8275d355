package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/apexathon/careerdash/internal/reveal"
)

var heartbeatInterval = 15 * time.Second

// handleEvents streams reveal events of one dashboard as server-sent events.
// The current view is sent first so late subscribers catch up. The stream
// ends after the done event, on unmount, or when the client goes away.
func handleEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
			return
		}

		events, unsubscribe := d.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		view := d.View()
		writeEvent(w, "snapshot", view)
		flusher.Flush()
		if !view.Loading {
			writeEvent(w, string(reveal.EventDone), reveal.Event{Type: reveal.EventDone, Visible: len(view.Recommendations)})
			flusher.Flush()
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				if v := d.View(); !v.Loading {
					writeEvent(w, string(reveal.EventDone), reveal.Event{Type: reveal.EventDone, Visible: len(v.Recommendations)})
					flusher.Flush()
					return
				}
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case ev, open := <-events:
				if !open {
					writeEvent(w, "unmounted", map[string]string{"id": d.ID})
					flusher.Flush()
					return
				}
				writeEvent(w, string(ev.Type), ev)
				flusher.Flush()
				if ev.Type == reveal.EventDone {
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshaling SSE event", "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}
