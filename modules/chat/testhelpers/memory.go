// Package testhelpers provides in-memory repositories so services and
// controllers can be exercised without Postgres.
package testhelpers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/pkg/composables"
)

// StubTx satisfies the transaction lookup in composables.InTx so the
// services run against the in-memory repositories without a database.
type StubTx struct{ pgx.Tx }

func TxContext() context.Context {
	return composables.WithTx(context.Background(), StubTx{})
}

type UserRepo struct {
	users map[uuid.UUID]user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]user.User)}
}

func (r *UserRepo) GetAll(_ context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *UserRepo) GetByUUID(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) GetByName(_ context.Context, name string) (user.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.CreatedDate = time.Now()
	u.UpdatedAt = u.CreatedDate
	r.users[u.UUID] = u
	return u, nil
}

func (r *UserRepo) Update(_ context.Context, u user.User) (user.User, error) {
	if _, ok := r.users[u.UUID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.UUID] = u
	return u, nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type GroupRepo struct {
	groups       map[uuid.UUID]group.Group
	participants []group.Participant
	nextID       int64
}

func NewGroupRepo() *GroupRepo {
	return &GroupRepo{groups: make(map[uuid.UUID]group.Group)}
}

func (r *GroupRepo) GetAll(_ context.Context) ([]group.Group, error) {
	out := make([]group.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	return out, nil
}

func (r *GroupRepo) GetByUUID(_ context.Context, id uuid.UUID) (group.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	return g, nil
}

func (r *GroupRepo) Create(_ context.Context, g group.Group) (group.Group, error) {
	g.CreatedDate = time.Now()
	g.UpdatedAt = g.CreatedDate
	r.groups[g.UUID] = g
	return g, nil
}

func (r *GroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.groups[id]; !ok {
		return group.ErrNotFound
	}
	delete(r.groups, id)
	kept := r.participants[:0]
	for _, p := range r.participants {
		if p.GroupUUID != id {
			kept = append(kept, p)
		}
	}
	r.participants = kept
	return nil
}

func (r *GroupRepo) AddParticipant(_ context.Context, groupID, userID uuid.UUID) (group.Participant, error) {
	r.nextID++
	p := group.Participant{
		ID:        r.nextID,
		GroupUUID: groupID,
		UserUUID:  userID,
		JoinedAt:  time.Now(),
	}
	r.participants = append(r.participants, p)
	return p, nil
}

func (r *GroupRepo) RemoveParticipant(_ context.Context, groupID, userID uuid.UUID) error {
	for i, p := range r.participants {
		if p.GroupUUID == groupID && p.UserUUID == userID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return nil
		}
	}
	return group.ErrNotMember
}

func (r *GroupRepo) Participants(_ context.Context, groupID uuid.UUID) ([]group.Participant, error) {
	var out []group.Participant
	for _, p := range r.participants {
		if p.GroupUUID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GroupRepo) GroupsForUser(_ context.Context, userID uuid.UUID) ([]group.Participant, error) {
	var out []group.Participant
	for _, p := range r.participants {
		if p.UserUUID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GroupRepo) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, p := range r.participants {
		if p.GroupUUID == groupID && p.UserUUID == userID {
			return true, nil
		}
	}
	return false, nil
}

type MessageRepo struct {
	messages map[int64]message.Message
	nextID   int64
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{messages: make(map[int64]message.Message)}
}

func (r *MessageRepo) visible() []message.Message {
	var out []message.Message
	for _, m := range r.messages {
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func paginate(all []message.Message, params *message.FindParams) ([]message.Message, int64) {
	total := int64(len(all))
	start := (params.Page - 1) * params.PerPage
	if start >= len(all) {
		return nil, total
	}
	end := start + params.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total
}

func (r *MessageRepo) GetPaginated(_ context.Context, params *message.FindParams) ([]message.Message, int64, error) {
	var filtered []message.Message
	for _, m := range r.visible() {
		if params.GroupID != nil && m.GroupID != *params.GroupID {
			continue
		}
		if params.SenderID != nil && m.SenderID != *params.SenderID {
			continue
		}
		filtered = append(filtered, m)
	}
	page, total := paginate(filtered, params)
	return page, total, nil
}

func (r *MessageRepo) GetByID(_ context.Context, id int64) (message.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	return m, nil
}

func (r *MessageRepo) GetBySender(_ context.Context, senderID uuid.UUID) ([]message.Message, error) {
	var out []message.Message
	for _, m := range r.visible() {
		if m.SenderID == senderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MessageRepo) GetByGroup(_ context.Context, groupID uuid.UUID, params *message.FindParams) ([]message.Message, int64, error) {
	var filtered []message.Message
	for _, m := range r.visible() {
		if m.GroupID == groupID {
			filtered = append(filtered, m)
		}
	}
	page, total := paginate(filtered, params)
	return page, total, nil
}

func (r *MessageRepo) Search(_ context.Context, params *message.SearchParams) ([]message.Message, error) {
	var out []message.Message
	for _, m := range r.visible() {
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(params.Query)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MessageRepo) Create(_ context.Context, m message.Message) (message.Message, error) {
	r.nextID++
	m.ID = r.nextID
	m.CreatedDate = time.Now()
	m.UpdatedAt = m.CreatedDate
	r.messages[m.ID] = m
	return m, nil
}

func (r *MessageRepo) Update(_ context.Context, m message.Message) (message.Message, error) {
	if _, ok := r.messages[m.ID]; !ok {
		return message.Message{}, message.ErrNotFound
	}
	m.UpdatedAt = time.Now()
	r.messages[m.ID] = m
	return m, nil
}

func (r *MessageRepo) SoftDelete(_ context.Context, id int64) error {
	m, ok := r.messages[id]
	if !ok {
		return message.ErrNotFound
	}
	m.IsDeleted = true
	r.messages[id] = m
	return nil
}
