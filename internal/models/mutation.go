package models

import (
	"encoding/json"
	"time"
)

// MutationEvent describes a successful create, update or delete issued from
// the panel.
type MutationEvent struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Entity     Entity          `json:"entity"`
	RecordID   string          `json:"recordId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Key is the partition key used when publishing the event.
func (e MutationEvent) Key() string {
	return string(e.Entity) + ":" + e.RecordID
}
