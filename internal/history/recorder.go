package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx satisfied by both pgxpool.Pool and pgx.Tx.
// Recording accepts it so history rows land inside the caller's transaction
// and roll back with it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Recorder appends history rows.
type Recorder struct{}

// NewRecorder returns a Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record persists one version of an entity. The snapshot is serialised as
// JSON; the history id comes from the table's sequence, so ordering is
// monotonic per table even under concurrent writers.
func (r *Recorder) Record(ctx context.Context, db DBTX, entity EntityKind, entityID, actorID uuid.UUID, snapshot any) error {
	if !entity.Valid() {
		return errors.New("history: unknown entity kind")
	}
	if entityID == uuid.Nil {
		return errors.New("history: entity id required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO history_entries (entity, entity_id, actor_id, snapshot, recorded_at)
VALUES ($1, $2, $3, $4, NOW())`, string(entity), entityID, nullUUID(actorID), data)
	return err
}

func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
