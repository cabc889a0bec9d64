package items

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/platform/db"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Repository persists items.
type Repository interface {
	List(ctx context.Context, filters catshared.ListFilters) ([]Item, int, error)
	ListAlerts(ctx context.Context, filters catshared.ListFilters) ([]Item, int, error)
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	Create(ctx context.Context, input Input, actorID uuid.UUID) (Item, error)
	Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (Item, error)
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Item, error)
	Restore(ctx context.Context, id, actorID uuid.UUID) (Item, error)
}

type repository struct {
	pool     *pgxpool.Pool
	recorder *history.Recorder
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, recorder *history.Recorder) Repository {
	return &repository{pool: pool, recorder: recorder}
}

const itemSelect = `SELECT i.id, i.name, i.safety_stock, i.stock, i.remarks, i.unit_id, i.category_id,
u.name, c.name, i.created_at, i.updated_at, i.deleted_at
FROM items i
JOIN units u ON u.id = i.unit_id
JOIN categories c ON c.id = i.category_id`

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.SafetyStock, &i.Stock, &i.Remarks, &i.UnitID, &i.CategoryID,
		&i.UnitName, &i.CategoryName, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return i, nil
}

// sortColumn resolves a sort field to its SQL expression plus a parser for
// the cursor key. Joined display names sort by the joined column.
func sortColumn(sortBy string) (string, func(string) (any, error)) {
	switch sortBy {
	case "unit":
		return "u.name", func(s string) (any, error) { return s, nil }
	case "category":
		return "c.name", func(s string) (any, error) { return s, nil }
	case "stock":
		return "i.stock", func(s string) (any, error) { return strconv.Atoi(s) }
	case "safetyStock":
		return "i.safety_stock", func(s string) (any, error) { return strconv.Atoi(s) }
	case "createdAt":
		return "i.created_at", func(s string) (any, error) { return shared.ParseTimeKey(s) }
	default:
		return "i.name", func(s string) (any, error) { return s, nil }
	}
}

func (r *repository) list(ctx context.Context, filters catshared.ListFilters, alertsOnly bool) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if alertsOnly {
		where += ` AND i.stock < i.safety_stock AND i.deleted_at IS NULL`
	} else if !filters.IncludeDeleted {
		where += ` AND i.deleted_at IS NULL`
	}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		args = append(args, pattern)
		n := len(args)
		where += fmt.Sprintf(` AND (i.name ILIKE $%d OR i.remarks ILIKE $%d OR u.name ILIKE $%d OR c.name ILIKE $%d)`, n, n, n, n)
	}

	countQuery := `SELECT COUNT(*) FROM items i JOIN units u ON u.id = i.unit_id JOIN categories c ON c.id = i.category_id` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	expr, parseKey := sortColumn(filters.SortBy)
	dir := catshared.Direction(filters.SortDir)
	cmp := ">"
	if dir == "DESC" {
		cmp = "<"
	}
	query := itemSelect + where
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		key, err := parseKey(cursor.Key)
		if err == nil {
			args = append(args, key, cursor.ID)
			query += fmt.Sprintf(` AND (%s, i.id) %s ($%d, $%d)`, expr, cmp, len(args)-1, len(args))
		}
	}
	limit := shared.ClampPageSize(filters.PageSize)
	query += fmt.Sprintf(` ORDER BY %s %s, i.id %s LIMIT %d`, expr, dir, dir, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Item{}
	for rows.Next() {
		var i Item
		err := rows.Scan(&i.ID, &i.Name, &i.SafetyStock, &i.Stock, &i.Remarks, &i.UnitID, &i.CategoryID,
			&i.UnitName, &i.CategoryName, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, i)
	}
	return result, total, rows.Err()
}

func (r *repository) List(ctx context.Context, filters catshared.ListFilters) ([]Item, int, error) {
	return r.list(ctx, filters, false)
}

// ListAlerts computes the reorder view at query time; nothing is stored,
// so it cannot drift from the authoritative stock value.
func (r *repository) ListAlerts(ctx context.Context, filters catshared.ListFilters) ([]Item, int, error) {
	return r.list(ctx, filters, true)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, itemSelect+` WHERE i.id=$1`, id))
}

// checkReferences verifies unit and category point at live catalog rows.
func checkReferences(ctx context.Context, tx pgx.Tx, input Input) error {
	var unitOK, categoryOK bool
	err := tx.QueryRow(ctx, `SELECT
EXISTS(SELECT 1 FROM units WHERE id=$1 AND deleted_at IS NULL),
EXISTS(SELECT 1 FROM categories WHERE id=$2 AND deleted_at IS NULL)`,
		input.UnitID, input.CategoryID).Scan(&unitOK, &categoryOK)
	if err != nil {
		return err
	}
	fields := map[string]string{}
	if !unitOK {
		fields["unit"] = "does not reference an active unit"
	}
	if !categoryOK {
		fields["category"] = "does not reference an active category"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

func (r *repository) Create(ctx context.Context, input Input, actorID uuid.UUID) (Item, error) {
	var created Item
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkReferences(ctx, tx, input); err != nil {
			return err
		}
		id := uuid.New()
		now := time.Now().UTC()
		_, err := tx.Exec(ctx, `INSERT INTO items (id, name, safety_stock, stock, remarks, unit_id, category_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
			id, input.Name, input.SafetyStock, input.Stock, input.Remarks, input.UnitID, input.CategoryID, now)
		if err != nil {
			return err
		}
		if created, err = scanItem(tx.QueryRow(ctx, itemSelect+` WHERE i.id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityItem, created.ID, actorID, created)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Item{}, &shared.ConflictError{Detail: "item name already in use"}
		}
		return Item{}, err
	}
	return created, nil
}

// Update applies an administrative edit, including manual stock
// corrections. The row lock serialises it against concurrent ledger
// deltas on the same item.
func (r *repository) Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (Item, error) {
	var updated Item
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM items WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := checkReferences(ctx, tx, input); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE items SET name=$2, safety_stock=$3, stock=$4, remarks=$5, unit_id=$6, category_id=$7, updated_at=NOW()
WHERE id=$1`, id, input.Name, input.SafetyStock, input.Stock, input.Remarks, input.UnitID, input.CategoryID)
		if err != nil {
			return err
		}
		if updated, err = scanItem(tx.QueryRow(ctx, itemSelect+` WHERE i.id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityItem, updated.ID, actorID, updated)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Item{}, &shared.ConflictError{Detail: "item name already in use"}
		}
		return Item{}, err
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Item, error) {
	var deleted Item
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE items SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if deleted, err = scanItem(tx.QueryRow(ctx, itemSelect+` WHERE i.id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityItem, deleted.ID, actorID, deleted)
	})
	if err != nil {
		return Item{}, err
	}
	return deleted, nil
}

func (r *repository) Restore(ctx context.Context, id, actorID uuid.UUID) (Item, error) {
	var restored Item
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE items SET deleted_at=NULL, updated_at=NOW() WHERE id=$1 AND deleted_at IS NOT NULL`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if restored, err = scanItem(tx.QueryRow(ctx, itemSelect+` WHERE i.id=$1`, id)); err != nil {
			return err
		}
		return r.recorder.Record(ctx, tx, history.EntityItem, restored.ID, actorID, restored)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Item{}, &shared.ConflictError{Detail: "item name already in use"}
		}
		return Item{}, err
	}
	return restored, nil
}
