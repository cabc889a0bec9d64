// Package auth issues and resolves opaque bearer tokens.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// Token is an opaque bearer credential. The token value presented by
// clients is the record's id.
type Token struct {
	ID        uuid.UUID `json:"token"`
	UserID    uuid.UUID `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
