package pglistener

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
	OpTest   Operation = "TEST"
)

// ChangeEvent is one decoded row-change notification. It is built by the
// database trigger at commit time, travels once over the notification
// channel and is discarded after dispatch; nothing here is persisted.
//
// The Previous* fields are only set on UPDATE and carry the pre-image, so a
// subscriber can tell a soft delete (IsDeleted flipping false to true) from
// a plain content edit without a second query. DELETE events carry only the
// identifying fields of the old row.
type ChangeEvent struct {
	Operation Operation `json:"operation"`
	Table     string    `json:"table"`

	ID          int64     `json:"id,omitempty"`
	GroupID     uuid.UUID `json:"group_id,omitempty"`
	SenderID    uuid.UUID `json:"sender_id,omitempty"`
	Content     string    `json:"content,omitempty"`
	File        *string   `json:"file,omitempty"`
	CreatedDate time.Time `json:"created_date,omitempty"`
	IsDeleted   bool      `json:"is_deleted,omitempty"`

	PreviousID        *int64  `json:"previous_id,omitempty"`
	PreviousContent   *string `json:"previous_content,omitempty"`
	PreviousIsDeleted *bool   `json:"previous_is_deleted,omitempty"`

	// Message is only set on TEST events.
	Message string `json:"message,omitempty"`
}

// IsSoftDelete reports whether the event marks a row's transition into the
// deleted state.
func (e *ChangeEvent) IsSoftDelete() bool {
	return e.Operation == OpUpdate &&
		e.IsDeleted &&
		e.PreviousIsDeleted != nil && !*e.PreviousIsDeleted
}

// DecodeChangeEvent parses a raw notification payload. An unknown operation
// is rejected like malformed JSON: the caller drops the frame either way.
func DecodeChangeEvent(payload []byte) (*ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode change event: %w", err)
	}
	switch event.Operation {
	case OpInsert, OpUpdate, OpDelete, OpTest:
	default:
		return nil, fmt.Errorf("decode change event: unknown operation %q", event.Operation)
	}
	return &event, nil
}
