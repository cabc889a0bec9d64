// Package history implements the append-only audit trail. Every mutation
// of a journaled entity writes one immutable row carrying the acting user
// and the full resulting snapshot, inside the mutation's own transaction.
package history

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityKind names a journaled entity type.
type EntityKind string

const (
	EntityUnit           EntityKind = "unit"
	EntityCategory       EntityKind = "category"
	EntityItem           EntityKind = "item"
	EntityInTransaction  EntityKind = "in_transaction"
	EntityOutTransaction EntityKind = "out_transaction"
	EntityUser           EntityKind = "user"
)

// Valid reports whether the kind is one of the journaled entity types.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityUnit, EntityCategory, EntityItem, EntityInTransaction, EntityOutTransaction, EntityUser:
		return true
	}
	return false
}

// Entry is one immutable version of a mutable entity.
type Entry struct {
	HistoryID  int64           `json:"historyId"`
	Entity     EntityKind      `json:"entity"`
	EntityID   uuid.UUID       `json:"entityId"`
	ActorID    uuid.UUID       `json:"actorId"`
	Snapshot   json.RawMessage `json:"snapshot"`
	RecordedAt time.Time       `json:"recordedAt"`
}
