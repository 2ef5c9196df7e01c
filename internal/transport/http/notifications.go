package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// notificationPollInterval is how often the streamer drains unread
// notifications for a connected principal.
const notificationPollInterval = 5 * time.Second

// StreamNotifications is the server-push binding of the notification
// feed: an SSE stream that polls unread notifications at a fixed
// interval, marks delivered rows read, and reports the pending-request
// count. Delivery is at-least-once; clients dedup by notification id.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("address")
	if recipient == "" {
		h.respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent(w, map[string]any{"type": "connected"})
	flusher.Flush()

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			notifs, pending, err := h.svc.PullNotifications(r.Context(), recipient)
			if err != nil {
				h.log.Warn().Err(err).Str("recipient", recipient).Msg("notification poll failed")
				continue
			}
			for _, n := range notifs {
				writeEvent(w, map[string]any{
					"id":         n.ID,
					"type":       n.Kind,
					"title":      n.Title,
					"message":    n.Message,
					"data":       json.RawMessage(n.Payload),
					"created_at": n.CreatedAt,
				})
			}
			if pending > 0 {
				writeEvent(w, map[string]any{"type": "pending_payments", "count": pending})
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
