package player

import "time"

// Directory defaults
const (
	DefaultDirectorySize = 10000
	DefaultPresenceTTL   = 30 * time.Minute
)

// Log messages
const (
	LogMsgPlayerJoined = "Player joined world"
	LogMsgPlayerLeft   = "Player left"
)
