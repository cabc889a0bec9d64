package categories

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

type Repository interface {
	List(ctx context.Context, filters catshared.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Create(ctx context.Context, category Category, actorID uuid.UUID) (Category, error)
	Update(ctx context.Context, category Category, actorID uuid.UUID) (Category, error)
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Category, error)
	Restore(ctx context.Context, id, actorID uuid.UUID) (Category, error)
}

type repository struct {
	pool     *pgxpool.Pool
	recorder *history.Recorder
}

func NewRepository(pool *pgxpool.Pool, recorder *history.Recorder) Repository {
	return &repository{pool: pool, recorder: recorder}
}

const categoryColumns = `id, name, created_at, updated_at, deleted_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, filters catshared.ListFilters) ([]Category, int, error) {
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := catshared.Direction(filters.SortDir)
	cmp := ">"
	if dir == "DESC" {
		cmp = "<"
	}
	query := `SELECT ` + categoryColumns + ` FROM categories` + where
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

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, category Category, actorID uuid.UUID) (Category, error) {
	var created Category
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		row := tx.QueryRow(ctx, `INSERT INTO categories (id, name, created_at, updated_at)
VALUES ($1, $2, $3, $3) RETURNING `+categoryColumns, uuid.New(), category.Name, now)
		var err error
		if created, err = scanCategory(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityCategory, created.ID, actorID, created)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, &shared.ConflictError{Detail: "category name already in use"}
		}
		return Category{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, category Category, actorID uuid.UUID) (Category, error) {
	var updated Category
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE categories SET name=$2, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL RETURNING `+categoryColumns, category.ID, category.Name)
		var err error
		if updated, err = scanCategory(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityCategory, updated.ID, actorID, updated)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, &shared.ConflictError{Detail: "category name already in use"}
		}
		return Category{}, err
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Category, error) {
	var deleted Category
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var inUse bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE category_id=$1 AND deleted_at IS NULL)`, id).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return &shared.ConflictError{Detail: "category is referenced by active items"}
		}
		row := tx.QueryRow(ctx, `UPDATE categories SET deleted_at=NOW(), updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL RETURNING `+categoryColumns, id)
		if deleted, err = scanCategory(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityCategory, deleted.ID, actorID, deleted)
	})
	if err != nil {
		return Category{}, err
	}
	return deleted, nil
}

func (r *repository) Restore(ctx context.Context, id, actorID uuid.UUID) (Category, error) {
	var restored Category
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE categories SET deleted_at=NULL, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NOT NULL RETURNING `+categoryColumns, id)
		var err error
		if restored, err = scanCategory(row); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityCategory, restored.ID, actorID, restored)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, &shared.ConflictError{Detail: "category name already in use"}
		}
		return Category{}, err
	}
	return restored, nil
}
