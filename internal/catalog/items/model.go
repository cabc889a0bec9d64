package items

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stocked article. Stock is the authoritative on-hand quantity,
// kept equal to the net effect of all non-voided transfers; SafetyStock is
// the reorder threshold used by the alerts listing.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	SafetyStock  int        `json:"safetyStock"`
	Stock        int        `json:"stock"`
	Remarks      string     `json:"remarks"`
	UnitID       uuid.UUID  `json:"unitId"`
	CategoryID   uuid.UUID  `json:"categoryId"`
	UnitName     string     `json:"unitName,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the item is soft-deleted.
func (i Item) Deleted() bool {
	return i.DeletedAt != nil
}

// BelowSafetyStock reports whether the item should appear on the
// reorder alert listing.
func (i Item) BelowSafetyStock() bool {
	return i.Stock < i.SafetyStock
}

// Input carries the caller-editable item fields.
type Input struct {
	Name        string
	SafetyStock int
	Stock       int
	Remarks     string
	UnitID      uuid.UUID
	CategoryID  uuid.UUID
}
