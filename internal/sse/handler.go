package sse

import (
	"net/http"
	"strings"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// Handler streams hub events to the caller until it disconnects or the hub
// stops. ?types=a,b limits the stream to those event types.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		rc := http.NewResponseController(w)

		var eventTypes []string
		if filter := r.URL.Query().Get(QueryParamTypes); filter != "" {
			eventTypes = strings.Split(filter, ",")
		}

		client := hub.Register(eventTypes)
		if client == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		defer func() {
			hub.Unregister(client.ID)
			log.Info(LogMsgClientDisconnected, "client_id", client.ID)
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		send := func(event Event) bool {
			msg, err := FormatSSEMessage(event)
			if err != nil {
				log.Error(LogMsgWriteError, "error", err, "event_type", event.Type)
				return true
			}
			if _, err := w.Write(msg); err != nil {
				log.Warn(LogMsgWriteError, "error", err)
				return false
			}
			if err := rc.Flush(); err != nil {
				log.Warn(LogMsgWriteError, "error", err)
				return false
			}
			return true
		}

		connected := Event{
			ID:        client.ID,
			Type:      EventTypeConnected,
			Timestamp: time.Now().Unix(),
			Payload:   ConnectedPayload{ClientID: client.ID, Filters: eventTypes},
		}
		if !send(connected) {
			return
		}
		log.Info(LogMsgClientConnected, "client_id", client.ID, "filters", eventTypes)

		ticker := time.NewTicker(KeepaliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return

			case event, ok := <-client.EventChannel:
				if !ok {
					return
				}
				if !send(event) {
					return
				}

			case <-ticker.C:
				if !send(Event{Type: EventTypeKeepalive, Timestamp: time.Now().Unix()}) {
					return
				}
			}
		}
	}
}
