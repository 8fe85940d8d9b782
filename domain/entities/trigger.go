package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// TriggerMessage is the command payload that requests one capture-and-analyze
// cycle. Only a correlation marker is required; anything else in the payload
// is ignored. Triggers are consumed once and never persisted.
type TriggerMessage struct {
	Timestamp string `json:"ts,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// CorrelationID returns the marker used to correlate log lines for one
// trigger. Falls back to the receipt time when the payload carries neither.
func (t TriggerMessage) CorrelationID() string {
	if t.RequestID != "" {
		return t.RequestID
	}
	if t.Timestamp != "" {
		return t.Timestamp
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// DecodeTrigger parses a raw command payload. A decode failure means the
// trigger is dropped, not retried.
func DecodeTrigger(payload []byte) (TriggerMessage, error) {
	var trigger TriggerMessage
	if err := json.Unmarshal(payload, &trigger); err != nil {
		return TriggerMessage{}, fmt.Errorf("decode trigger payload: %w", err)
	}
	return trigger, nil
}

// CapturedImage is a single frame grabbed from the video source. It is owned
// by the upload stage until the storage write succeeds, after which the local
// copy is discarded.
type CapturedImage struct {
	Content    []byte
	SourceURI  string
	CapturedAt time.Time
}

// StorageObject is a frame at rest in the object store.
type StorageObject struct {
	Bucket       string
	Key          string
	Data         []byte
	LastModified time.Time
}
