package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// MetricsHandler returns the hub counters as JSON.
func MetricsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			MetricsSnapshot
			GeneratedAt string `json:"generated_at"`
		}{
			MetricsSnapshot: hub.Metrics(),
			GeneratedAt:     time.Now().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("[WS] Error encoding metrics: %v", err)
		}
	}
}
