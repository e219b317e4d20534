package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence/models"
	"github.com/chathub-dev/chathub/pkg/composables"
)

const (
	selectGroupsQuery = `
		SELECT uuid, created_date, updated_at
		FROM groups`
	insertGroupQuery = `
		INSERT INTO groups (uuid)
		VALUES ($1)
		RETURNING created_date, updated_at`
	deleteGroupQuery = `DELETE FROM groups WHERE uuid = $1`

	selectParticipantsQuery = `
		SELECT id, group_uuid, user_uuid, joined_at
		FROM group_participants`
	insertParticipantQuery = `
		INSERT INTO group_participants (group_uuid, user_uuid)
		VALUES ($1, $2)
		RETURNING id, joined_at`
	deleteParticipantQuery = `
		DELETE FROM group_participants
		WHERE group_uuid = $1 AND user_uuid = $2`
	memberExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM group_participants
			WHERE group_uuid = $1 AND user_uuid = $2
		)`
)

type GroupRepository struct{}

func NewGroupRepository() group.Repository {
	return &GroupRepository{}
}

func (r *GroupRepository) GetAll(ctx context.Context) ([]group.Group, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectGroupsQuery+` ORDER BY created_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Group
	for rows.Next() {
		var row models.Group
		if err := rows.Scan(&row.UUID, &row.CreatedDate, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, toDomainGroup(&row))
	}
	return out, rows.Err()
}

func (r *GroupRepository) GetByUUID(ctx context.Context, id uuid.UUID) (group.Group, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return group.Group{}, err
	}

	var row models.Group
	err = tx.QueryRow(ctx, selectGroupsQuery+` WHERE uuid = $1`, id.String()).
		Scan(&row.UUID, &row.CreatedDate, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, err
	}
	return toDomainGroup(&row), nil
}

func (r *GroupRepository) Create(ctx context.Context, g group.Group) (group.Group, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return group.Group{}, err
	}

	err = tx.QueryRow(ctx, insertGroupQuery, g.UUID.String()).
		Scan(&g.CreatedDate, &g.UpdatedAt)
	if err != nil {
		return group.Group{}, err
	}
	return g, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, deleteGroupQuery, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) AddParticipant(ctx context.Context, groupID, userID uuid.UUID) (group.Participant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return group.Participant{}, err
	}

	p := group.Participant{GroupUUID: groupID, UserUUID: userID}
	err = tx.QueryRow(ctx, insertParticipantQuery, groupID.String(), userID.String()).
		Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		return group.Participant{}, err
	}
	return p, nil
}

func (r *GroupRepository) RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, deleteParticipantQuery, groupID.String(), userID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return group.ErrNotMember
	}
	return nil
}

func (r *GroupRepository) Participants(ctx context.Context, groupID uuid.UUID) ([]group.Participant, error) {
	return r.listParticipants(ctx, selectParticipantsQuery+` WHERE group_uuid = $1 ORDER BY joined_at`, groupID.String())
}

func (r *GroupRepository) GroupsForUser(ctx context.Context, userID uuid.UUID) ([]group.Participant, error) {
	return r.listParticipants(ctx, selectParticipantsQuery+` WHERE user_uuid = $1 ORDER BY joined_at`, userID.String())
}

func (r *GroupRepository) listParticipants(ctx context.Context, query string, arg any) ([]group.Participant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Participant
	for rows.Next() {
		var row models.GroupParticipant
		if err := rows.Scan(&row.ID, &row.GroupUUID, &row.UserUUID, &row.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, toDomainParticipant(&row))
	}
	return out, rows.Err()
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, memberExistsQuery, groupID.String(), userID.String()).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
