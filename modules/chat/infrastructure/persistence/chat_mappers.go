package persistence

import (
	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence/models"
)

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toDomainUser(row *models.User) user.User {
	return user.User{
		UUID:        parseUUID(row.UUID),
		Name:        row.Name,
		CreatedDate: row.CreatedDate,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toDomainGroup(row *models.Group) group.Group {
	return group.Group{
		UUID:        parseUUID(row.UUID),
		CreatedDate: row.CreatedDate,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toDomainParticipant(row *models.GroupParticipant) group.Participant {
	return group.Participant{
		ID:        row.ID,
		GroupUUID: parseUUID(row.GroupUUID),
		UserUUID:  parseUUID(row.UserUUID),
		JoinedAt:  row.JoinedAt,
	}
}

func toDomainMessage(row *models.Message) message.Message {
	return message.Message{
		ID:          row.ID,
		Content:     row.Content,
		File:        row.File,
		GroupID:     parseUUID(row.GroupID),
		SenderID:    parseUUID(row.SenderID),
		SenderName:  row.SenderName,
		CreatedDate: row.CreatedDate,
		UpdatedAt:   row.UpdatedAt,
		IsDeleted:   row.IsDeleted,
	}
}
