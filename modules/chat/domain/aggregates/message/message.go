package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/pkg/serrors"
)

var (
	ErrNotFound  = serrors.NewError("MESSAGE_NOT_FOUND", "message not found", "")
	ErrDeleted   = serrors.NewError("MESSAGE_DELETED", "message has been deleted", "")
	ErrNotSender = serrors.NewError("MESSAGE_NOT_SENDER", "only the sender can modify a message", "")
)

type Message struct {
	ID          int64
	Content     string
	File        *string
	GroupID     uuid.UUID
	SenderID    uuid.UUID
	SenderName  string
	CreatedDate time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// FindParams filters the paginated listing. Page is 1-based.
type FindParams struct {
	GroupID  *uuid.UUID
	SenderID *uuid.UUID
	Page     int
	PerPage  int
}

// SearchParams drives the ILIKE content search.
type SearchParams struct {
	Query  string
	Limit  int
	Offset int
}
