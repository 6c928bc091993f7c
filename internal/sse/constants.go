package sse

import "time"

// Buffer sizes
const (
	// BroadcastBufferSize is the buffer size for the broadcast channel
	BroadcastBufferSize = 256

	// ClientEventBuffer is the buffer size for each client's event channel
	ClientEventBuffer = 64
)

// KeepaliveInterval is how often an idle stream gets a ping
const KeepaliveInterval = 30 * time.Second

// Stream-level event types. Bus events keep their own type names.
const (
	EventTypeConnected = "connected"
	EventTypeKeepalive = "keepalive"
)

// QueryParamTypes selects event types, comma separated
const QueryParamTypes = "types"

// Log messages
const (
	LogMsgClientConnected    = "SSE client connected"
	LogMsgClientDisconnected = "SSE client disconnected"
	LogMsgEventBroadcast     = "Broadcasting SSE event"
	LogMsgBroadcastDropped   = "SSE broadcast buffer full, event dropped"
	LogMsgClientLagging      = "SSE client buffer full, event skipped"
	LogMsgWriteError         = "Failed to write SSE event"
	LogMsgSubscribed         = "SSE subscriber registered for event types"
	LogMsgHubStopped         = "SSE hub stopped"
)
