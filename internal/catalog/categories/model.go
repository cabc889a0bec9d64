package categories

import (
	"time"

	"github.com/google/uuid"
)

// Category groups items for reporting.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (c Category) Deleted() bool {
	return c.DeletedAt != nil
}
