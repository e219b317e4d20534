package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/pkg/serrors"
)

var (
	ErrNotFound  = serrors.NewError("USER_NOT_FOUND", "user not found", "")
	ErrNameTaken = serrors.NewError("USER_NAME_TAKEN", "user with this name already exists", "")
)

type User struct {
	UUID        uuid.UUID
	Name        string
	CreatedDate time.Time
	UpdatedAt   time.Time
}

func New(name string) User {
	return User{
		UUID: uuid.New(),
		Name: name,
	}
}
