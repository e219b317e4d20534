package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/pkg/cache"
	"github.com/chathub-dev/chathub/pkg/composables"
)

type MessageService struct {
	messages message.Repository
	groups   group.Repository
	cache    *cache.Client
	cacheTTL time.Duration
}

func NewMessageService(
	messages message.Repository,
	groups group.Repository,
	cacheClient *cache.Client,
	cacheTTL time.Duration,
) *MessageService {
	return &MessageService{
		messages: messages,
		groups:   groups,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
	}
}

type cachedMessage struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	File        *string   `json:"file"`
	GroupID     uuid.UUID `json:"group_uuid"`
	SenderID    uuid.UUID `json:"sender_uuid"`
	SenderName  string    `json:"sender_name"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
}

func toCached(m message.Message) cachedMessage {
	return cachedMessage{
		ID:          m.ID,
		Content:     m.Content,
		File:        m.File,
		GroupID:     m.GroupID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		CreatedDate: m.CreatedDate,
		UpdatedAt:   m.UpdatedAt,
		IsDeleted:   m.IsDeleted,
	}
}

func (c cachedMessage) toDomain() message.Message {
	return message.Message{
		ID:          c.ID,
		Content:     c.Content,
		File:        c.File,
		GroupID:     c.GroupID,
		SenderID:    c.SenderID,
		SenderName:  c.SenderName,
		CreatedDate: c.CreatedDate,
		UpdatedAt:   c.UpdatedAt,
		IsDeleted:   c.IsDeleted,
	}
}

func messageCacheKey(id int64) string {
	return fmt.Sprintf("message:%d", id)
}

// Create inserts a message after verifying group membership. Real-time
// fan-out happens through the database trigger and the change listener, not
// here.
func (s *MessageService) Create(ctx context.Context, senderID uuid.UUID, dto *message.CreateDTO) (message.Message, error) {
	member, err := s.groups.IsMember(ctx, dto.GroupID, senderID)
	if err != nil {
		return message.Message{}, err
	}
	if !member {
		return message.Message{}, group.ErrNotMember
	}

	created, err := s.messages.Create(ctx, message.Message{
		Content:  dto.Content,
		File:     dto.File,
		GroupID:  dto.GroupID,
		SenderID: senderID,
	})
	if err != nil {
		return message.Message{}, err
	}

	s.storeInCache(ctx, created)
	return created, nil
}

func (s *MessageService) GetPaginated(ctx context.Context, params *message.FindParams) ([]message.Message, int64, error) {
	return s.messages.GetPaginated(ctx, params)
}

// GetByID checks the redis cache before hitting the database. Deleted
// messages read as not found.
func (s *MessageService) GetByID(ctx context.Context, id int64) (message.Message, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, messageCacheKey(id)); err == nil {
			var cached cachedMessage
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				if cached.IsDeleted {
					return message.Message{}, message.ErrDeleted
				}
				return cached.toDomain(), nil
			}
		}
	}

	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return message.Message{}, err
	}
	if m.IsDeleted {
		return message.Message{}, message.ErrDeleted
	}
	s.storeInCache(ctx, m)
	return m, nil
}

func (s *MessageService) Search(ctx context.Context, params *message.SearchParams) ([]message.Message, error) {
	return s.messages.Search(ctx, params)
}

// Update edits a message. Only the sender may edit, and deleted messages are
// immutable.
func (s *MessageService) Update(ctx context.Context, requester uuid.UUID, id int64, dto *message.UpdateDTO) (message.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return message.Message{}, err
	}
	if m.IsDeleted {
		return message.Message{}, message.ErrDeleted
	}
	if m.SenderID != requester {
		return message.Message{}, message.ErrNotSender
	}

	if dto.Content != nil {
		m.Content = *dto.Content
	}
	if dto.File != nil {
		m.File = dto.File
	}

	updated, err := s.messages.Update(ctx, m)
	if err != nil {
		return message.Message{}, err
	}
	s.storeInCache(ctx, updated)
	return updated, nil
}

// Delete soft-deletes a message. Only the sender may delete.
func (s *MessageService) Delete(ctx context.Context, requester uuid.UUID, id int64) error {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.IsDeleted {
		return message.ErrDeleted
	}
	if m.SenderID != requester {
		return message.ErrNotSender
	}

	err = composables.InTx(ctx, func(ctx context.Context) error {
		return s.messages.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, messageCacheKey(id))
	}
	return nil
}

func (s *MessageService) storeInCache(ctx context.Context, m message.Message) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(toCached(m))
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, messageCacheKey(m.ID), string(payload), s.cacheTTL)
}
