package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Message, int64, error)
	GetByID(ctx context.Context, id int64) (Message, error)
	GetBySender(ctx context.Context, senderID uuid.UUID) ([]Message, error)
	GetByGroup(ctx context.Context, groupID uuid.UUID, params *FindParams) ([]Message, int64, error)
	Search(ctx context.Context, params *SearchParams) ([]Message, error)
	Create(ctx context.Context, m Message) (Message, error)
	Update(ctx context.Context, m Message) (Message, error)
	SoftDelete(ctx context.Context, id int64) error
}
