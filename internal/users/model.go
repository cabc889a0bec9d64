// Package users manages warehouse operator accounts.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator account. PasswordHash never leaves the process;
// it is excluded from JSON and therefore from history snapshots too.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash string     `json:"-"`
	Admin        bool       `json:"admin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the account is soft-deleted.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}

// Input carries the editable account fields.
type Input struct {
	Username  string
	FirstName string
	LastName  string
	Admin     bool
}
