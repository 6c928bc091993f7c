package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DeadLetterSchemaVersion is written on every entry. Bump it when
// DeadLetterEntry changes shape.
const DeadLetterSchemaVersion = "2"

// DeadLetterEntry is one line of the dead-letter log. World and RecipeID are
// lifted out of the payload so the file can be filtered without decoding it.
type DeadLetterEntry struct {
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	World         string    `json:"world,omitempty"`
	RecipeID      string    `json:"recipe_id,omitempty"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	Event         Event     `json:"event"`
}

// DeadLetterWriter appends undeliverable events to a JSON-lines file
type DeadLetterWriter struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewDeadLetterWriter opens path for appending, creating it if needed
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, err
	}
	return &DeadLetterWriter{file: f, now: time.Now}, nil
}

// Write records an event that exhausted its retries
func (w *DeadLetterWriter) Write(evt Event, attempts int, lastError error) error {
	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     w.now().UTC(),
		Attempts:      attempts,
		Event:         evt,
	}
	entry.World, entry.RecipeID = subjectOf(evt)
	if lastError != nil {
		entry.LastError = lastError.Error()
	}

	slog.Warn(LogMsgEventDeadLettered,
		"event_type", evt.Type,
		"world", entry.World,
		"recipe_id", entry.RecipeID,
		"attempts", attempts,
		"error", entry.LastError)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgEncodeDeadLetter, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.file.Write(append(data, '\n'))
	return err
}

// Close closes the underlying file
func (w *DeadLetterWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReadDeadLetters parses a dead-letter log. Blank lines are skipped; a
// malformed line stops the read and reports its line number. Payloads come
// back as maps; use DecodePayload to get the typed struct.
func ReadDeadLetters(r io.Reader) ([]DeadLetterEntry, error) {
	var entries []DeadLetterEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxDeadLetterLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry DeadLetterEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return entries, fmt.Errorf("%s %d: %w", ErrMsgMalformedDeadLetter, line, err)
		}
		entries = append(entries, entry)
	}
	return entries, sc.Err()
}

// subjectOf pulls the world and recipe an event is about out of its payload
func subjectOf(evt Event) (world, recipeID string) {
	switch p := evt.Payload.(type) {
	case RecipeCraftedPayloadV1:
		return p.World, p.RecipeID
	case CraftLimitReachedPayloadV1:
		return p.World, p.RecipeID
	case WorldCleanedPayloadV1:
		return p.World, ""
	case RecipePayloadV1:
		return "", p.RecipeID
	}
	if w, ok := evt.GetMetadataValue("world").(string); ok {
		world = w
	}
	return world, ""
}
