package types

import "time"

// EventType classifies a library event pushed to websocket clients.
type EventType string

const (
	EventSyncCompleted  EventType = "sync"
	EventImportStarted  EventType = "import_started"
	EventImportFinished EventType = "import_finished"
	EventImportFailed   EventType = "import_failed"
)

// LibraryEvent is a message broadcast to connected websocket clients
// whenever the library changes or an import progresses.
type LibraryEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Message   string      `json:"message,omitempty"`
	Report    *SyncReport `json:"report,omitempty"`
	JobID     string      `json:"jobId,omitempty"`
	URL       string      `json:"url,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
