package mappers

import (
	"time"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/modules/chat/presentation/viewmodels"
)

func UserToViewModel(u user.User) viewmodels.User {
	return viewmodels.User{
		UUID:        u.UUID.String(),
		Name:        u.Name,
		CreatedDate: u.CreatedDate.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

func GroupToViewModel(g group.Group) viewmodels.Group {
	return viewmodels.Group{
		UUID:        g.UUID.String(),
		CreatedDate: g.CreatedDate.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
}

func ParticipantToViewModel(p group.Participant) viewmodels.Participant {
	return viewmodels.Participant{
		GroupUUID: p.GroupUUID.String(),
		UserUUID:  p.UserUUID.String(),
		JoinedAt:  p.JoinedAt.Format(time.RFC3339),
	}
}

func MessageToViewModel(m message.Message) viewmodels.Message {
	return viewmodels.Message{
		ID:          m.ID,
		Content:     m.Content,
		File:        m.File,
		GroupUUID:   m.GroupID.String(),
		SenderUUID:  m.SenderID.String(),
		SenderName:  m.SenderName,
		CreatedDate: m.CreatedDate.Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.Format(time.RFC3339),
		IsDeleted:   m.IsDeleted,
	}
}

func MessagesToViewModels(items []message.Message) []viewmodels.Message {
	out := make([]viewmodels.Message, 0, len(items))
	for _, m := range items {
		out = append(out, MessageToViewModel(m))
	}
	return out
}

func NewPagination(page, perPage int, total int64) viewmodels.Pagination {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	p := viewmodels.Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
	if p.HasNext {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrev {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
