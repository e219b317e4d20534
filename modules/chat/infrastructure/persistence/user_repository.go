package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence/models"
	"github.com/chathub-dev/chathub/pkg/composables"
)

const (
	selectUsersQuery = `
		SELECT uuid, name, created_date, updated_at
		FROM users`
	insertUserQuery = `
		INSERT INTO users (uuid, name)
		VALUES ($1, $2)
		RETURNING created_date, updated_at`
	updateUserQuery = `
		UPDATE users
		SET name = $2, updated_at = now()
		WHERE uuid = $1
		RETURNING created_date, updated_at`
	deleteUserQuery = `DELETE FROM users WHERE uuid = $1`
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectUsersQuery+` ORDER BY created_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		var row models.User
		if err := rows.Scan(&row.UUID, &row.Name, &row.CreatedDate, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, toDomainUser(&row))
	}
	return out, rows.Err()
}

func (r *UserRepository) GetByUUID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return r.getOne(ctx, selectUsersQuery+` WHERE uuid = $1`, id.String())
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (user.User, error) {
	return r.getOne(ctx, selectUsersQuery+` WHERE name = $1`, name)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}

	var row models.User
	err = tx.QueryRow(ctx, query, arg).Scan(&row.UUID, &row.Name, &row.CreatedDate, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return toDomainUser(&row), nil
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}

	err = tx.QueryRow(ctx, insertUserQuery, u.UUID.String(), u.Name).
		Scan(&u.CreatedDate, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}

	err = tx.QueryRow(ctx, updateUserQuery, u.UUID.String(), u.Name).
		Scan(&u.CreatedDate, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, deleteUserQuery, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
