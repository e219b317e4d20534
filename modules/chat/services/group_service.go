package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/pkg/composables"
)

type GroupService struct {
	groups   group.Repository
	messages message.Repository
}

func NewGroupService(groups group.Repository, messages message.Repository) *GroupService {
	return &GroupService{groups: groups, messages: messages}
}

// Create makes the group and enrolls the creator as its first participant
// atomically.
func (s *GroupService) Create(ctx context.Context, creator uuid.UUID) (group.Group, error) {
	var created group.Group
	err := composables.InTx(ctx, func(ctx context.Context) error {
		g, err := s.groups.Create(ctx, group.New())
		if err != nil {
			return err
		}
		if _, err := s.groups.AddParticipant(ctx, g.UUID, creator); err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		return group.Group{}, err
	}
	return created, nil
}

func (s *GroupService) GetAll(ctx context.Context) ([]group.Group, error) {
	return s.groups.GetAll(ctx)
}

func (s *GroupService) GetByUUID(ctx context.Context, id uuid.UUID) (group.Group, error) {
	return s.groups.GetByUUID(ctx, id)
}

// Delete removes the group. Only participants may delete it.
func (s *GroupService) Delete(ctx context.Context, id, requester uuid.UUID) error {
	member, err := s.groups.IsMember(ctx, id, requester)
	if err != nil {
		return err
	}
	if !member {
		return group.ErrNotMember
	}
	if _, err := s.groups.GetByUUID(ctx, id); err != nil {
		return err
	}
	return s.groups.Delete(ctx, id)
}

func (s *GroupService) Join(ctx context.Context, groupID, userID uuid.UUID) (group.Participant, error) {
	if _, err := s.groups.GetByUUID(ctx, groupID); err != nil {
		return group.Participant{}, err
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return group.Participant{}, err
	}
	if member {
		return group.Participant{}, group.ErrAlreadyMember
	}
	return s.groups.AddParticipant(ctx, groupID, userID)
}

func (s *GroupService) Leave(ctx context.Context, groupID, userID uuid.UUID) error {
	if _, err := s.groups.GetByUUID(ctx, groupID); err != nil {
		return err
	}
	return s.groups.RemoveParticipant(ctx, groupID, userID)
}

func (s *GroupService) Participants(ctx context.Context, groupID uuid.UUID) ([]group.Participant, error) {
	if _, err := s.groups.GetByUUID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groups.Participants(ctx, groupID)
}

func (s *GroupService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return s.groups.IsMember(ctx, groupID, userID)
}

func (s *GroupService) GroupsForUser(ctx context.Context, userID uuid.UUID) ([]group.Participant, error) {
	return s.groups.GroupsForUser(ctx, userID)
}

func (s *GroupService) Messages(ctx context.Context, groupID uuid.UUID, params *message.FindParams) ([]message.Message, int64, error) {
	if _, err := s.groups.GetByUUID(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.messages.GetByGroup(ctx, groupID, params)
}
