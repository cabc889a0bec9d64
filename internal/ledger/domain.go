// Package ledger implements the stock movement engine: inbound receipts,
// outbound deliveries, their transfer lines, and the void state machine
// that keeps item stock equal to the net effect of all non-voided lines.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind discriminates the two movement directions.
type MovementKind string

const (
	MovementIn  MovementKind = "IN"
	MovementOut MovementKind = "OUT"
)

// InTransaction is a receipt of stock from a supplier.
type InTransaction struct {
	ID                    uuid.UUID  `json:"id"`
	Supplier              string     `json:"supplier"`
	DeliveryReceipt       *string    `json:"deliveryReceipt,omitempty"`
	DateOfDeliveryReceipt *time.Time `json:"dateOfDeliveryReceipt,omitempty"`
	DateReceived          *time.Time `json:"dateReceived,omitempty"`
	Void                  bool       `json:"void"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	Transfers             []Transfer `json:"transfers,omitempty"`
}

// OutTransaction is a delivery of stock to a customer.
type OutTransaction struct {
	ID                    uuid.UUID  `json:"id"`
	Customer              string     `json:"customer"`
	DeliveryReceipt       *string    `json:"deliveryReceipt,omitempty"`
	DateOfDeliveryReceipt *time.Time `json:"dateOfDeliveryReceipt,omitempty"`
	Void                  bool       `json:"void"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	Transfers             []Transfer `json:"transfers,omitempty"`
}

// Transfer is one item-quantity line under a movement header. Lines are
// immutable once the header is saved; Index preserves submission order.
type Transfer struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction"`
	ItemID        uuid.UUID `json:"item"`
	ItemName      string    `json:"itemName"`
	Quantity      int       `json:"quantity"`
	Index         int       `json:"index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Movement is the unified chronological feed entry over both header
// kinds. Exactly one of In/Out is populated, matching Kind.
type Movement struct {
	ID        uuid.UUID       `json:"id"`
	Kind      MovementKind    `json:"kind"`
	In        *InTransaction  `json:"inTransaction,omitempty"`
	Out       *OutTransaction `json:"outTransaction,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MovementLine is the unified feed entry over transfer lines.
type MovementLine struct {
	ID        uuid.UUID    `json:"id"`
	Kind      MovementKind `json:"kind"`
	Line      Transfer     `json:"line"`
	Index     int          `json:"index"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// LineInput is one requested transfer line.
type LineInput struct {
	ItemID   uuid.UUID `json:"item"`
	Quantity int       `json:"quantity"`
}

// InboundInput creates an InTransaction with its lines.
type InboundInput struct {
	Supplier              string
	DeliveryReceipt       *string
	DateOfDeliveryReceipt *time.Time
	DateReceived          *time.Time
	Lines                 []LineInput
}

// OutboundInput creates an OutTransaction with its lines.
type OutboundInput struct {
	Customer              string
	DeliveryReceipt       *string
	DateOfDeliveryReceipt *time.Time
	Lines                 []LineInput
}

// InboundUpdate edits the non-void, non-line header fields.
type InboundUpdate struct {
	Supplier              string
	DeliveryReceipt       *string
	DateOfDeliveryReceipt *time.Time
	DateReceived          *time.Time
}

// OutboundUpdate edits the non-void, non-line header fields.
type OutboundUpdate struct {
	Customer              string
	DeliveryReceipt       *string
	DateOfDeliveryReceipt *time.Time
}

// ListFilters narrows the movement list queries.
type ListFilters struct {
	Search   string
	From     time.Time
	To       time.Time
	SortDir  string
	PageSize int
	Cursor   string
}
