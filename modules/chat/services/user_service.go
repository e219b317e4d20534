package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
)

type UserService struct {
	users    user.Repository
	groups   group.Repository
	messages message.Repository
}

func NewUserService(users user.Repository, groups group.Repository, messages message.Repository) *UserService {
	return &UserService{users: users, groups: groups, messages: messages}
}

func (s *UserService) GetAll(ctx context.Context) ([]user.User, error) {
	return s.users.GetAll(ctx)
}

func (s *UserService) GetByUUID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return s.users.GetByUUID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, dto *user.UpdateDTO) (user.User, error) {
	u, err := s.users.GetByUUID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	return s.users.Update(ctx, u)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *UserService) Messages(ctx context.Context, id uuid.UUID) ([]message.Message, error) {
	return s.messages.GetBySender(ctx, id)
}

func (s *UserService) Groups(ctx context.Context, id uuid.UUID) ([]group.Participant, error) {
	return s.groups.GroupsForUser(ctx, id)
}
