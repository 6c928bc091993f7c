package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is one connected stream
type Client struct {
	ID           string
	EventChannel chan Event
	EventFilter  map[string]bool // nil means all events
}

// Hub fans events out to connected clients. Slow clients miss events rather
// than block the broadcaster.
type Hub struct {
	clients   map[string]*Client
	broadcast chan Event
	mu        sync.RWMutex
	stopped   bool
	shutdown  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		broadcast: make(chan Event, BroadcastBufferSize),
		shutdown:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start starts the hub's broadcast loop
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

// Stop ends the loop and closes every client channel. Safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.shutdown)
		h.wg.Wait()

		h.mu.Lock()
		h.stopped = true
		for _, client := range h.clients {
			close(client.EventChannel)
		}
		h.clients = make(map[string]*Client)
		h.mu.Unlock()
		slog.Info(LogMsgHubStopped)
	})
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case event := <-h.broadcast:
			h.deliver(event)
		case <-h.shutdown:
			return
		}
	}
}

func (h *Hub) deliver(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.EventFilter != nil && !client.EventFilter[event.Type] {
			continue
		}
		select {
		case client.EventChannel <- event:
		default:
			slog.Debug(LogMsgClientLagging, "client_id", client.ID, "event_type", event.Type)
		}
	}
}

// Register adds a client interested in eventTypes (all types when empty).
// It returns nil once the hub is stopped.
func (h *Hub) Register(eventTypes []string) *Client {
	client := &Client{
		ID:           uuid.NewString(),
		EventChannel: make(chan Event, ClientEventBuffer),
	}
	for _, t := range eventTypes {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if client.EventFilter == nil {
			client.EventFilter = make(map[string]bool)
		}
		client.EventFilter[t] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.clients[client.ID] = client
	return client
}

// Unregister removes a client and closes its channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.EventChannel)
		delete(h.clients, clientID)
	}
}

// Broadcast queues an event for all interested clients
func (h *Hub) Broadcast(eventType string, payload any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: h.now().Unix(),
		Payload:   payload,
	}

	select {
	case <-h.shutdown:
		return
	default:
	}

	select {
	case h.broadcast <- event:
	default:
		slog.Warn(LogMsgBroadcastDropped, "event_type", eventType)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// FormatSSEMessage renders an event in the text/event-stream framing
func FormatSSEMessage(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if event.ID != "" {
		b.WriteString("id: " + event.ID + "\n")
	}
	b.WriteString("event: " + event.Type + "\n")
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
	return []byte(b.String()), nil
}
