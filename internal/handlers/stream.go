package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/pipeline"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

// streamEvents writes every event as a server-sent event block until the
// channel is closed or the client goes away.
func streamEvents(logger *utils.Logger, w http.ResponseWriter, events <-chan pipeline.Event) {
	rc := http.NewResponseController(w)
	// processing can outlast the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Error("Failed to encode event", "error", err, "phase", ev.Phase)
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			logger.Warn("Client disconnected from stream", "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			logger.Warn("Failed to flush stream", "error", err)
			return
		}
	}
}
