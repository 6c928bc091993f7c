package sse

// Event is one message on the stream
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// ConnectedPayload is the first message of every stream
type ConnectedPayload struct {
	ClientID string   `json:"client_id"`
	Filters  []string `json:"filters"`
}
