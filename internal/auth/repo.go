package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fcgregorio/jbj-trading/internal/shared"
	"github.com/fcgregorio/jbj-trading/internal/users"
)

// Repository defines persistence operations for tokens.
type Repository interface {
	Insert(ctx context.Context, token Token) error
	ResolveUser(ctx context.Context, tokenID uuid.UUID) (users.User, error)
	Delete(ctx context.Context, tokenID uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Insert(ctx context.Context, token Token) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO auth_tokens (id, user_id, created_at, updated_at)
VALUES ($1,$2,$3,$3)`, token.ID, token.UserID, time.Now().UTC())
	return err
}

// ResolveUser maps a presented token to its live account. Tokens of
// soft-deleted accounts resolve to nothing.
func (r *PGRepository) ResolveUser(ctx context.Context, tokenID uuid.UUID) (users.User, error) {
	var u users.User
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.username, u.first_name, u.last_name, u.password_hash, u.admin, u.created_at, u.updated_at, u.deleted_at
FROM auth_tokens t JOIN users u ON u.id = t.user_id
WHERE t.id=$1 AND u.deleted_at IS NULL`, tokenID).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Admin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, shared.ErrNotFound
		}
		return users.User{}, err
	}
	return u, nil
}

func (r *PGRepository) Delete(ctx context.Context, tokenID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE id=$1`, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
