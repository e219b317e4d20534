package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence/models"
	"github.com/chathub-dev/chathub/pkg/composables"
)

const (
	selectMessagesQuery = `
		SELECT m.id, m.content, m.file, m.group_id, m.sender_id,
		       COALESCE(u.name, 'Unknown') AS sender_name,
		       m.created_date, m.updated_at, m.is_deleted
		FROM messages m
		LEFT JOIN users u ON u.uuid = m.sender_id`
	insertMessageQuery = `
		INSERT INTO messages (content, file, group_id, sender_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_date, updated_at`
	updateMessageQuery = `
		UPDATE messages
		SET content = $2, file = $3, updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING created_date, updated_at`
	softDeleteMessageQuery = `
		UPDATE messages
		SET is_deleted = true, updated_at = now()
		WHERE id = $1 AND is_deleted = false`
	countMessagesQuery = `SELECT COUNT(m.id) FROM messages m`
)

type MessageRepository struct{}

func NewMessageRepository() message.Repository {
	return &MessageRepository{}
}

func buildMessageFilters(params *message.FindParams) ([]string, []any) {
	where := []string{"m.is_deleted = false"}
	var args []any
	if params == nil {
		return where, args
	}
	if params.GroupID != nil {
		args = append(args, params.GroupID.String())
		where = append(where, fmt.Sprintf("m.group_id = $%d", len(args)))
	}
	if params.SenderID != nil {
		args = append(args, params.SenderID.String())
		where = append(where, fmt.Sprintf("m.sender_id = $%d", len(args)))
	}
	return where, args
}

func (r *MessageRepository) GetPaginated(ctx context.Context, params *message.FindParams) ([]message.Message, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	page, perPage := 1, 20
	if params != nil {
		if params.Page > 0 {
			page = params.Page
		}
		if params.PerPage > 0 {
			perPage = params.PerPage
		}
	}
	offset := (page - 1) * perPage

	where, args := buildMessageFilters(params)
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := tx.QueryRow(ctx, countMessagesQuery+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitArgs := append(args, perPage, offset)
	query := selectMessagesQuery + cond +
		fmt.Sprintf(" ORDER BY m.created_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	out, err := r.list(ctx, tx, query, limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return message.Message{}, err
	}

	var row models.Message
	err = tx.QueryRow(ctx, selectMessagesQuery+` WHERE m.id = $1`, id).Scan(
		&row.ID, &row.Content, &row.File, &row.GroupID, &row.SenderID,
		&row.SenderName, &row.CreatedDate, &row.UpdatedAt, &row.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, err
	}
	return toDomainMessage(&row), nil
}

func (r *MessageRepository) GetBySender(ctx context.Context, senderID uuid.UUID) ([]message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, tx,
		selectMessagesQuery+` WHERE m.sender_id = $1 AND m.is_deleted = false ORDER BY m.created_date DESC`,
		senderID.String(),
	)
}

func (r *MessageRepository) GetByGroup(ctx context.Context, groupID uuid.UUID, params *message.FindParams) ([]message.Message, int64, error) {
	scoped := message.FindParams{GroupID: &groupID}
	if params != nil {
		scoped.Page = params.Page
		scoped.PerPage = params.PerPage
		scoped.SenderID = params.SenderID
	}
	return r.GetPaginated(ctx, &scoped)
}

func (r *MessageRepository) Search(ctx context.Context, params *message.SearchParams) ([]message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	return r.list(ctx, tx,
		selectMessagesQuery+` WHERE m.content ILIKE $1 AND m.is_deleted = false
		 ORDER BY m.created_date DESC LIMIT $2 OFFSET $3`,
		"%"+params.Query+"%", limit, offset,
	)
}

func (r *MessageRepository) Create(ctx context.Context, m message.Message) (message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return message.Message{}, err
	}

	err = tx.QueryRow(ctx, insertMessageQuery,
		m.Content, m.File, m.GroupID.String(), m.SenderID.String(),
	).Scan(&m.ID, &m.CreatedDate, &m.UpdatedAt)
	if err != nil {
		return message.Message{}, err
	}
	return m, nil
}

func (r *MessageRepository) Update(ctx context.Context, m message.Message) (message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return message.Message{}, err
	}

	err = tx.QueryRow(ctx, updateMessageQuery, m.ID, m.Content, m.File).
		Scan(&m.CreatedDate, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *MessageRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, softDeleteMessageQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return message.ErrNotFound
	}
	return nil
}

func (r *MessageRepository) list(ctx context.Context, tx composables.DBTx, query string, args ...any) ([]message.Message, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		var row models.Message
		if err := rows.Scan(
			&row.ID, &row.Content, &row.File, &row.GroupID, &row.SenderID,
			&row.SenderName, &row.CreatedDate, &row.UpdatedAt, &row.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, toDomainMessage(&row))
	}
	return out, rows.Err()
}
