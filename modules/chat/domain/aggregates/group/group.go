package group

import (
	"time"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/pkg/serrors"
)

var (
	ErrNotFound      = serrors.NewError("GROUP_NOT_FOUND", "group not found", "")
	ErrNotMember     = serrors.NewError("GROUP_NOT_MEMBER", "not a member of this group", "")
	ErrAlreadyMember = serrors.NewError("GROUP_ALREADY_MEMBER", "already a member of this group", "")
)

// EventChannel is the pub/sub channel carrying a group's real-time events.
func EventChannel(id uuid.UUID) string {
	return "group:" + id.String()
}

type Group struct {
	UUID        uuid.UUID
	CreatedDate time.Time
	UpdatedAt   time.Time
}

type Participant struct {
	ID        int64
	GroupUUID uuid.UUID
	UserUUID  uuid.UUID
	JoinedAt  time.Time
}

func New() Group {
	return Group{UUID: uuid.New()}
}
