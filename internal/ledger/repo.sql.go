package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/fcgregorio/jbj-trading/internal/catalog/items"
	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Repository persists movement data in PostgreSQL.
type Repository struct {
	pool     *pgxpool.Pool
	recorder *history.Recorder
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, recorder *history.Recorder) *Repository {
	return &Repository{pool: pool, recorder: recorder}
}

// ItemStock is the locked view of an item taken before a stock delta.
type ItemStock struct {
	ID    uuid.UUID
	Name  string
	Stock int
}

// TxRepository exposes the transactional operations used by Service.
// Every write of one logical movement operation runs through a single
// TxRepository so a failure rolls the whole operation back.
type TxRepository interface {
	InsertInbound(ctx context.Context, header InTransaction) error
	InsertOutbound(ctx context.Context, header OutTransaction) error
	InsertTransfer(ctx context.Context, kind MovementKind, line Transfer) error
	InsertMovement(ctx context.Context, kind MovementKind, headerID uuid.UUID, at time.Time) error
	InsertMovementLine(ctx context.Context, kind MovementKind, lineID uuid.UUID, index int, at time.Time) error
	GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (ItemStock, error)
	UpdateItemStock(ctx context.Context, itemID uuid.UUID, stock int) (items.Item, error)
	GetInboundForUpdate(ctx context.Context, id uuid.UUID) (InTransaction, error)
	GetOutboundForUpdate(ctx context.Context, id uuid.UUID) (OutTransaction, error)
	SetInboundVoid(ctx context.Context, id uuid.UUID, desired bool) error
	SetOutboundVoid(ctx context.Context, id uuid.UUID, desired bool) error
	UpdateInbound(ctx context.Context, id uuid.UUID, update InboundUpdate) (InTransaction, error)
	UpdateOutbound(ctx context.Context, id uuid.UUID, update OutboundUpdate) (OutTransaction, error)
	ListInboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error)
	ListOutboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error)
	RecordHistory(ctx context.Context, entity history.EntityKind, entityID, actorID uuid.UUID, snapshot any) error
}

type txRepository struct {
	tx       pgx.Tx
	recorder *history.Recorder
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, recorder: r.recorder}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const inboundColumns = `id, supplier, delivery_receipt, date_of_delivery_receipt, date_received, void, created_at, updated_at`
const outboundColumns = `id, customer, delivery_receipt, date_of_delivery_receipt, void, created_at, updated_at`

func scanInbound(row pgx.Row) (InTransaction, error) {
	var t InTransaction
	err := row.Scan(&t.ID, &t.Supplier, &t.DeliveryReceipt, &t.DateOfDeliveryReceipt, &t.DateReceived, &t.Void, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InTransaction{}, shared.ErrNotFound
		}
		return InTransaction{}, err
	}
	return t, nil
}

func scanOutbound(row pgx.Row) (OutTransaction, error) {
	var t OutTransaction
	err := row.Scan(&t.ID, &t.Customer, &t.DeliveryReceipt, &t.DateOfDeliveryReceipt, &t.Void, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OutTransaction{}, shared.ErrNotFound
		}
		return OutTransaction{}, err
	}
	return t, nil
}

func transferTable(kind MovementKind) string {
	if kind == MovementIn {
		return "in_transfers"
	}
	return "out_transfers"
}

func listTransfers(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, kind MovementKind, headerID uuid.UUID) ([]Transfer, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT t.id, t.transaction_id, t.item_id, i.name, t.quantity, t.line_index, t.created_at, t.updated_at
FROM %s t JOIN items i ON i.id = t.item_id
WHERE t.transaction_id=$1 ORDER BY t.line_index ASC`, transferTable(kind)), headerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []Transfer{}
	for rows.Next() {
		var line Transfer
		if err := rows.Scan(&line.ID, &line.TransactionID, &line.ItemID, &line.ItemName, &line.Quantity, &line.Index, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetInbound returns one receipt with its lines in submission order.
func (r *Repository) GetInbound(ctx context.Context, id uuid.UUID) (InTransaction, error) {
	header, err := scanInbound(r.pool.QueryRow(ctx, `SELECT `+inboundColumns+` FROM in_transactions WHERE id=$1`, id))
	if err != nil {
		return InTransaction{}, err
	}
	if header.Transfers, err = listTransfers(ctx, r.pool, MovementIn, id); err != nil {
		return InTransaction{}, err
	}
	return header, nil
}

// GetOutbound returns one delivery with its lines in submission order.
func (r *Repository) GetOutbound(ctx context.Context, id uuid.UUID) (OutTransaction, error) {
	header, err := scanOutbound(r.pool.QueryRow(ctx, `SELECT `+outboundColumns+` FROM out_transactions WHERE id=$1`, id))
	if err != nil {
		return OutTransaction{}, err
	}
	if header.Transfers, err = listTransfers(ctx, r.pool, MovementOut, id); err != nil {
		return OutTransaction{}, err
	}
	return header, nil
}

type headerQuery struct {
	where string
	args  []any
}

func buildHeaderFilter(filters ListFilters, searchColumn string) headerQuery {
	q := headerQuery{where: ` WHERE 1=1`}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		q.args = append(q.args, pattern)
		q.where += fmt.Sprintf(` AND (%s ILIKE $%d OR delivery_receipt ILIKE $%d)`, searchColumn, len(q.args), len(q.args))
	}
	if !filters.From.IsZero() {
		q.args = append(q.args, filters.From)
		q.where += fmt.Sprintf(` AND created_at >= $%d`, len(q.args))
	}
	if !filters.To.IsZero() {
		q.args = append(q.args, filters.To)
		q.where += fmt.Sprintf(` AND created_at <= $%d`, len(q.args))
	}
	return q
}

func keysetClause(filters ListFilters, args []any, prefix string) (string, []any, string) {
	dir := "DESC"
	cmp := "<"
	if filters.SortDir == catshared.SortAsc {
		dir = "ASC"
		cmp = ">"
	}
	clause := ""
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		if key, err := shared.ParseTimeKey(cursor.Key); err == nil {
			args = append(args, key, cursor.ID)
			clause = fmt.Sprintf(` AND (%screated_at, %sid) %s ($%d, $%d)`, prefix, prefix, cmp, len(args)-1, len(args))
		}
	}
	return clause, args, dir
}

func (r *Repository) ListInbound(ctx context.Context, filters ListFilters) ([]InTransaction, int, error) {
	q := buildHeaderFilter(filters, "supplier")
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM in_transactions`+q.where, q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	clause, args, dir := keysetClause(filters, q.args, "")
	limit := shared.ClampPageSize(filters.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM in_transactions%s%s ORDER BY created_at %s, id %s LIMIT %d`,
		inboundColumns, q.where, clause, dir, dir, limit+1)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result := []InTransaction{}
	for rows.Next() {
		var t InTransaction
		if err := rows.Scan(&t.ID, &t.Supplier, &t.DeliveryReceipt, &t.DateOfDeliveryReceipt, &t.DateReceived, &t.Void, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	return result, total, rows.Err()
}

func (r *Repository) ListOutbound(ctx context.Context, filters ListFilters) ([]OutTransaction, int, error) {
	q := buildHeaderFilter(filters, "customer")
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM out_transactions`+q.where, q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	clause, args, dir := keysetClause(filters, q.args, "")
	limit := shared.ClampPageSize(filters.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM out_transactions%s%s ORDER BY created_at %s, id %s LIMIT %d`,
		outboundColumns, q.where, clause, dir, dir, limit+1)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result := []OutTransaction{}
	for rows.Next() {
		var t OutTransaction
		if err := rows.Scan(&t.ID, &t.Customer, &t.DeliveryReceipt, &t.DateOfDeliveryReceipt, &t.Void, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	return result, total, rows.Err()
}

// ListMovements merges both header kinds into one chronological feed.
// The count and the page are independent reads, so they run concurrently.
func (r *Repository) ListMovements(ctx context.Context, filters ListFilters) ([]Movement, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		args = append(args, pattern)
		where += fmt.Sprintf(` AND (it.supplier ILIKE $%d OR ot.customer ILIKE $%d)`, len(args), len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		where += fmt.Sprintf(` AND m.created_at >= $%d`, len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		where += fmt.Sprintf(` AND m.created_at <= $%d`, len(args))
	}
	from := ` FROM movements m
LEFT JOIN in_transactions it ON it.id = m.in_transaction_id
LEFT JOIN out_transactions ot ON ot.id = m.out_transaction_id`

	clause, pageArgs, dir := keysetClause(filters, args, "m.")
	limit := shared.ClampPageSize(filters.PageSize)
	query := fmt.Sprintf(`SELECT m.id, m.kind, m.created_at, m.updated_at,
it.id, it.supplier, it.delivery_receipt, it.date_of_delivery_receipt, it.date_received, it.void, it.created_at, it.updated_at,
ot.id, ot.customer, ot.delivery_receipt, ot.date_of_delivery_receipt, ot.void, ot.created_at, ot.updated_at
%s%s%s ORDER BY m.created_at %s, m.id %s LIMIT %d`, from, where, clause, dir, dir, limit+1)

	var total int
	result := []Movement{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, query, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m Movement
			var in struct {
				ID                    *uuid.UUID
				Supplier              *string
				DeliveryReceipt       *string
				DateOfDeliveryReceipt *time.Time
				DateReceived          *time.Time
				Void                  *bool
				CreatedAt             *time.Time
				UpdatedAt             *time.Time
			}
			var out struct {
				ID                    *uuid.UUID
				Customer              *string
				DeliveryReceipt       *string
				DateOfDeliveryReceipt *time.Time
				Void                  *bool
				CreatedAt             *time.Time
				UpdatedAt             *time.Time
			}
			err := rows.Scan(&m.ID, &m.Kind, &m.CreatedAt, &m.UpdatedAt,
				&in.ID, &in.Supplier, &in.DeliveryReceipt, &in.DateOfDeliveryReceipt, &in.DateReceived, &in.Void, &in.CreatedAt, &in.UpdatedAt,
				&out.ID, &out.Customer, &out.DeliveryReceipt, &out.DateOfDeliveryReceipt, &out.Void, &out.CreatedAt, &out.UpdatedAt)
			if err != nil {
				return err
			}
			if m.Kind == MovementIn && in.ID != nil {
				m.In = &InTransaction{ID: *in.ID, Supplier: *in.Supplier, DeliveryReceipt: in.DeliveryReceipt,
					DateOfDeliveryReceipt: in.DateOfDeliveryReceipt, DateReceived: in.DateReceived,
					Void: *in.Void, CreatedAt: *in.CreatedAt, UpdatedAt: *in.UpdatedAt}
			}
			if m.Kind == MovementOut && out.ID != nil {
				m.Out = &OutTransaction{ID: *out.ID, Customer: *out.Customer, DeliveryReceipt: out.DeliveryReceipt,
					DateOfDeliveryReceipt: out.DateOfDeliveryReceipt,
					Void: *out.Void, CreatedAt: *out.CreatedAt, UpdatedAt: *out.UpdatedAt}
			}
			result = append(result, m)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListMovementLines merges both transfer kinds into one feed.
func (r *Repository) ListMovementLines(ctx context.Context, filters ListFilters) ([]MovementLine, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if pattern := catshared.SearchPattern(filters.Search); pattern != "" {
		args = append(args, pattern)
		where += fmt.Sprintf(` AND i.name ILIKE $%d`, len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		where += fmt.Sprintf(` AND ml.created_at >= $%d`, len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		where += fmt.Sprintf(` AND ml.created_at <= $%d`, len(args))
	}
	from := ` FROM movement_lines ml
LEFT JOIN in_transfers itf ON itf.id = ml.in_transfer_id
LEFT JOIN out_transfers otf ON otf.id = ml.out_transfer_id
JOIN items i ON i.id = COALESCE(itf.item_id, otf.item_id)`

	clause, pageArgs, dir := keysetClause(filters, args, "ml.")
	limit := shared.ClampPageSize(filters.PageSize)
	query := fmt.Sprintf(`SELECT ml.id, ml.kind, ml.line_index, ml.created_at, ml.updated_at,
COALESCE(itf.id, otf.id), COALESCE(itf.transaction_id, otf.transaction_id), i.id, i.name,
COALESCE(itf.quantity, otf.quantity), COALESCE(itf.line_index, otf.line_index),
COALESCE(itf.created_at, otf.created_at), COALESCE(itf.updated_at, otf.updated_at)
%s%s%s ORDER BY ml.created_at %s, ml.id %s LIMIT %d`, from, where, clause, dir, dir, limit+1)

	var total int
	result := []MovementLine{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, query, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var ml MovementLine
			err := rows.Scan(&ml.ID, &ml.Kind, &ml.Index, &ml.CreatedAt, &ml.UpdatedAt,
				&ml.Line.ID, &ml.Line.TransactionID, &ml.Line.ItemID, &ml.Line.ItemName,
				&ml.Line.Quantity, &ml.Line.Index, &ml.Line.CreatedAt, &ml.Line.UpdatedAt)
			if err != nil {
				return err
			}
			result = append(result, ml)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *txRepository) InsertInbound(ctx context.Context, header InTransaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO in_transactions (id, supplier, delivery_receipt, date_of_delivery_receipt, date_received, void, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
		header.ID, header.Supplier, header.DeliveryReceipt, header.DateOfDeliveryReceipt, header.DateReceived, header.Void, header.CreatedAt)
	return err
}

func (r *txRepository) InsertOutbound(ctx context.Context, header OutTransaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO out_transactions (id, customer, delivery_receipt, date_of_delivery_receipt, void, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)`,
		header.ID, header.Customer, header.DeliveryReceipt, header.DateOfDeliveryReceipt, header.Void, header.CreatedAt)
	return err
}

func (r *txRepository) InsertTransfer(ctx context.Context, kind MovementKind, line Transfer) error {
	_, err := r.tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, transaction_id, item_id, quantity, line_index, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)`, transferTable(kind)),
		line.ID, line.TransactionID, line.ItemID, line.Quantity, line.Index, line.CreatedAt)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, kind MovementKind, headerID uuid.UUID, at time.Time) error {
	column := "in_transaction_id"
	if kind == MovementOut {
		column = "out_transaction_id"
	}
	_, err := r.tx.Exec(ctx, fmt.Sprintf(`INSERT INTO movements (id, kind, %s, created_at, updated_at)
VALUES ($1,$2,$3,$4,$4)`, column), uuid.New(), kind, headerID, at)
	return err
}

func (r *txRepository) InsertMovementLine(ctx context.Context, kind MovementKind, lineID uuid.UUID, index int, at time.Time) error {
	column := "in_transfer_id"
	if kind == MovementOut {
		column = "out_transfer_id"
	}
	_, err := r.tx.Exec(ctx, fmt.Sprintf(`INSERT INTO movement_lines (id, kind, %s, line_index, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)`, column), uuid.New(), kind, lineID, index, at)
	return err
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (ItemStock, error) {
	var item ItemStock
	err := r.tx.QueryRow(ctx, `SELECT id, name, stock FROM items WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, itemID).
		Scan(&item.ID, &item.Name, &item.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemStock{}, shared.NewValidationError("item", "does not reference an active item")
		}
		return ItemStock{}, err
	}
	return item, nil
}

func (r *txRepository) UpdateItemStock(ctx context.Context, itemID uuid.UUID, stock int) (items.Item, error) {
	if _, err := r.tx.Exec(ctx, `UPDATE items SET stock=$2, updated_at=NOW() WHERE id=$1`, itemID, stock); err != nil {
		return items.Item{}, err
	}
	var item items.Item
	err := r.tx.QueryRow(ctx, `SELECT i.id, i.name, i.safety_stock, i.stock, i.remarks, i.unit_id, i.category_id,
u.name, c.name, i.created_at, i.updated_at, i.deleted_at
FROM items i JOIN units u ON u.id = i.unit_id JOIN categories c ON c.id = i.category_id
WHERE i.id=$1`, itemID).Scan(&item.ID, &item.Name, &item.SafetyStock, &item.Stock, &item.Remarks,
		&item.UnitID, &item.CategoryID, &item.UnitName, &item.CategoryName, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	return item, err
}

func (r *txRepository) GetInboundForUpdate(ctx context.Context, id uuid.UUID) (InTransaction, error) {
	return scanInbound(r.tx.QueryRow(ctx, `SELECT `+inboundColumns+` FROM in_transactions WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetOutboundForUpdate(ctx context.Context, id uuid.UUID) (OutTransaction, error) {
	return scanOutbound(r.tx.QueryRow(ctx, `SELECT `+outboundColumns+` FROM out_transactions WHERE id=$1 FOR UPDATE`, id))
}

// SetInboundVoid flips the flag only when the row still holds the
// opposite value. Zero rows affected means a concurrent toggle won.
func (r *txRepository) SetInboundVoid(ctx context.Context, id uuid.UUID, desired bool) error {
	tag, err := r.tx.Exec(ctx, `UPDATE in_transactions SET void=$2, updated_at=NOW() WHERE id=$1 AND void = NOT $2`, id, desired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Detail: "void flag already holds the requested value"}
	}
	return nil
}

func (r *txRepository) SetOutboundVoid(ctx context.Context, id uuid.UUID, desired bool) error {
	tag, err := r.tx.Exec(ctx, `UPDATE out_transactions SET void=$2, updated_at=NOW() WHERE id=$1 AND void = NOT $2`, id, desired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Detail: "void flag already holds the requested value"}
	}
	return nil
}

func (r *txRepository) UpdateInbound(ctx context.Context, id uuid.UUID, update InboundUpdate) (InTransaction, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE in_transactions SET supplier=$2, delivery_receipt=$3, date_of_delivery_receipt=$4, date_received=$5, updated_at=NOW()
WHERE id=$1`, id, update.Supplier, update.DeliveryReceipt, update.DateOfDeliveryReceipt, update.DateReceived)
	if err != nil {
		return InTransaction{}, err
	}
	if tag.RowsAffected() == 0 {
		return InTransaction{}, shared.ErrNotFound
	}
	return scanInbound(r.tx.QueryRow(ctx, `SELECT `+inboundColumns+` FROM in_transactions WHERE id=$1`, id))
}

func (r *txRepository) UpdateOutbound(ctx context.Context, id uuid.UUID, update OutboundUpdate) (OutTransaction, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE out_transactions SET customer=$2, delivery_receipt=$3, date_of_delivery_receipt=$4, updated_at=NOW()
WHERE id=$1`, id, update.Customer, update.DeliveryReceipt, update.DateOfDeliveryReceipt)
	if err != nil {
		return OutTransaction{}, err
	}
	if tag.RowsAffected() == 0 {
		return OutTransaction{}, shared.ErrNotFound
	}
	return scanOutbound(r.tx.QueryRow(ctx, `SELECT `+outboundColumns+` FROM out_transactions WHERE id=$1`, id))
}

func (r *txRepository) ListInboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error) {
	return listTransfers(ctx, r.tx, MovementIn, headerID)
}

func (r *txRepository) ListOutboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error) {
	return listTransfers(ctx, r.tx, MovementOut, headerID)
}

func (r *txRepository) RecordHistory(ctx context.Context, entity history.EntityKind, entityID, actorID uuid.UUID, snapshot any) error {
	return r.recorder.Record(ctx, r.tx, entity, entityID, actorID, snapshot)
}
