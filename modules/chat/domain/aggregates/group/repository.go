package group

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetAll(ctx context.Context) ([]Group, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (Group, error)
	Create(ctx context.Context, g Group) (Group, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddParticipant(ctx context.Context, groupID, userID uuid.UUID) (Participant, error)
	RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) error
	Participants(ctx context.Context, groupID uuid.UUID) ([]Participant, error)
	GroupsForUser(ctx context.Context, userID uuid.UUID) ([]Participant, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}
