package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/platform/db"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Repository persists user accounts.
type Repository interface {
	List(ctx context.Context, filters catshared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, input Input, passwordHash string, actorID uuid.UUID) (User, error)
	Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, actorID uuid.UUID) (User, error)
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) (User, error)
	Restore(ctx context.Context, id, actorID uuid.UUID) (User, error)
}

type repository struct {
	pool     *pgxpool.Pool
	recorder *history.Recorder
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, recorder *history.Recorder) Repository {
	return &repository{pool: pool, recorder: recorder}
}

const userColumns = `id, username, first_name, last_name, password_hash, admin, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Admin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, filters catshared.ListFilters) ([]User, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if !filters.IncludeDeleted {
		where += ` AND deleted_at IS NULL`
	}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		args = append(args, pattern)
		n := len(args)
		where += fmt.Sprintf(` AND (username ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)`, n, n, n)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	dir := catshared.Direction(filters.SortDir)
	cmp := ">"
	if dir == "DESC" {
		cmp = "<"
	}
	query := `SELECT ` + userColumns + ` FROM users` + where
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		args = append(args, cursor.Key, cursor.ID)
		query += fmt.Sprintf(` AND (username, id) %s ($%d, $%d)`, cmp, len(args)-1, len(args))
	}
	limit := shared.ClampPageSize(filters.PageSize)
	query += fmt.Sprintf(` ORDER BY username %s, id %s LIMIT %d`, dir, dir, limit+1)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Admin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, u)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *repository) GetByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1 AND deleted_at IS NULL`, username))
}

func (r *repository) Create(ctx context.Context, input Input, passwordHash string, actorID uuid.UUID) (User, error) {
	var created User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		id := uuid.New()
		now := time.Now().UTC()
		_, err := tx.Exec(ctx, `INSERT INTO users (id, username, first_name, last_name, password_hash, admin, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`, id, input.Username, input.FirstName, input.LastName, passwordHash, input.Admin, now)
		if err != nil {
			return err
		}
		if created, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUser, created.ID, actorID, created)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, &shared.ConflictError{Detail: "username already in use"}
		}
		return User{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (User, error) {
	var updated User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET username=$2, first_name=$3, last_name=$4, admin=$5, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL`, id, input.Username, input.FirstName, input.LastName, input.Admin)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if updated, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUser, updated.ID, actorID, updated)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, &shared.ConflictError{Detail: "username already in use"}
		}
		return User{}, err
	}
	return updated, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, actorID uuid.UUID) (User, error) {
	var updated User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if updated, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUser, updated.ID, actorID, updated)
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (User, error) {
	var deleted User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if deleted, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUser, deleted.ID, actorID, deleted)
	})
	if err != nil {
		return User{}, err
	}
	return deleted, nil
}

func (r *repository) Restore(ctx context.Context, id, actorID uuid.UUID) (User, error) {
	var restored User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET deleted_at=NULL, updated_at=NOW() WHERE id=$1 AND deleted_at IS NOT NULL`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if restored, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUser, restored.ID, actorID, restored)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, &shared.ConflictError{Detail: "username already in use"}
		}
		return User{}, err
	}
	return restored, nil
}
