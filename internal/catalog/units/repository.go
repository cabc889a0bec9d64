package units

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

// Repository persists units.
type Repository interface {
	List(ctx context.Context, filters catshared.ListFilters) ([]Unit, int, error)
	Get(ctx context.Context, id uuid.UUID) (Unit, error)
	Create(ctx context.Context, unit Unit, actorID uuid.UUID) (Unit, error)
	Update(ctx context.Context, unit Unit, actorID uuid.UUID) (Unit, error)
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Unit, error)
	Restore(ctx context.Context, id, actorID uuid.UUID) (Unit, error)
}

type repository struct {
	pool     *pgxpool.Pool
	recorder *history.Recorder
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, recorder *history.Recorder) Repository {
	return &repository{pool: pool, recorder: recorder}
}

const unitColumns = `id, name, created_at, updated_at, deleted_at`

func scanUnit(row pgx.Row) (Unit, error) {
	var u Unit
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, shared.ErrNotFound
		}
		return Unit{}, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, filters catshared.ListFilters) ([]Unit, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if !filters.IncludeDeleted {
		where += ` AND deleted_at IS NULL`
	}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		args = append(args, pattern)
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM units`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := catshared.Direction(filters.SortDir)
	cmp := ">"
	if dir == "DESC" {
		cmp = "<"
	}
	query := `SELECT ` + unitColumns + ` FROM units` + where
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		args = append(args, cursor.Key, cursor.ID)
		query += fmt.Sprintf(` AND (name, id) %s ($%d, $%d)`, cmp, len(args)-1, len(args))
	}
	limit := shared.ClampPageSize(filters.PageSize)
	query += fmt.Sprintf(` ORDER BY name %s, id %s LIMIT %d`, dir, dir, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	units := []Unit{}
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return nil, 0, err
		}
		units = append(units, u)
	}
	return units, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Unit, error) {
	return scanUnit(r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM units WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, unit Unit, actorID uuid.UUID) (Unit, error) {
	var created Unit
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		row := tx.QueryRow(ctx, `INSERT INTO units (id, name, created_at, updated_at)
VALUES ($1, $2, $3, $3) RETURNING `+unitColumns, uuid.New(), unit.Name, now)
		var err error
		if created, err = scanUnit(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUnit, created.ID, actorID, created)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Unit{}, &shared.ConflictError{Detail: "unit name already in use"}
		}
		return Unit{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, unit Unit, actorID uuid.UUID) (Unit, error) {
	var updated Unit
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE units SET name=$2, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL RETURNING `+unitColumns, unit.ID, unit.Name)
		var err error
		if updated, err = scanUnit(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUnit, updated.ID, actorID, updated)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Unit{}, &shared.ConflictError{Detail: "unit name already in use"}
		}
		return Unit{}, err
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Unit, error) {
	var deleted Unit
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var inUse bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE unit_id=$1 AND deleted_at IS NULL)`, id).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return &shared.ConflictError{Detail: "unit is referenced by active items"}
		}
		row := tx.QueryRow(ctx, `UPDATE units SET deleted_at=NOW(), updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL RETURNING `+unitColumns, id)
		if deleted, err = scanUnit(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUnit, deleted.ID, actorID, deleted)
	})
	if err != nil {
		return Unit{}, err
	}
	return deleted, nil
}

func (r *repository) Restore(ctx context.Context, id, actorID uuid.UUID) (Unit, error) {
	var restored Unit
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE units SET deleted_at=NULL, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NOT NULL RETURNING `+unitColumns, id)
		var err error
		if restored, err = scanUnit(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityUnit, restored.ID, actorID, restored)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Unit{}, &shared.ConflictError{Detail: "unit name already in use"}
		}
		return Unit{}, err
	}
	return restored, nil
}
