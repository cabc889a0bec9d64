package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// RepositoryPort abstracts history reads for the service.
type RepositoryPort interface {
	List(ctx context.Context, entity EntityKind, entityID uuid.UUID, before int64, limit int) ([]Entry, int, error)
}

// Service serves history listings.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns history rows for one entity, most recent first. The cursor
// is the last-seen history id; the page continues below it.
func (s *Service) List(ctx context.Context, entity EntityKind, entityID uuid.UUID, cursor string, pageSize int) ([]Entry, shared.Page, error) {
	if s.repo == nil {
		return nil, shared.Page{}, fmt.Errorf("history: repository not configured")
	}
	if !entity.Valid() {
		return nil, shared.Page{}, shared.NewValidationError("entity", "unknown entity kind")
	}
	if entityID == uuid.Nil {
		return nil, shared.Page{}, shared.NewValidationError("entityId", "required")
	}
	limit := shared.ClampPageSize(pageSize)
	before, _ := shared.DecodeSeqCursor(cursor)

	rows, total, err := s.repo.List(ctx, entity, entityID, before, limit+1)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("history: list", err)
	}
	page := shared.Page{Total: total}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = shared.EncodeSeqCursor(rows[len(rows)-1].HistoryID)
	}
	return rows, page, nil
}

// Repository reads history rows from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List fetches up to limit entries with history_id below the cursor,
// descending, along with the total count for the entity.
func (r *Repository) List(ctx context.Context, entity EntityKind, entityID uuid.UUID, before int64, limit int) ([]Entry, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history_entries WHERE entity=$1 AND entity_id=$2`,
		string(entity), entityID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT history_id, entity, entity_id, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'::uuid), snapshot, recorded_at
FROM history_entries
WHERE entity=$1 AND entity_id=$2`
	args := []any{string(entity), entityID}
	if before > 0 {
		query += ` AND history_id < $3`
		args = append(args, before)
	}
	query += fmt.Sprintf(` ORDER BY history_id DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.HistoryID, &kind, &e.EntityID, &e.ActorID, &e.Snapshot, &e.RecordedAt); err != nil {
			return nil, 0, err
		}
		e.Entity = EntityKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
