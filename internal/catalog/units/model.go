package units

import (
	"time"

	"github.com/google/uuid"
)

// Unit represents a unit of measure.
type Unit struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the unit is soft-deleted.
func (u Unit) Deleted() bool {
	return u.DeletedAt != nil
}
