package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// RepositoryPort abstracts repository usage for Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInbound(ctx context.Context, id uuid.UUID) (InTransaction, error)
	GetOutbound(ctx context.Context, id uuid.UUID) (OutTransaction, error)
	ListInbound(ctx context.Context, filters ListFilters) ([]InTransaction, int, error)
	ListOutbound(ctx context.Context, filters ListFilters) ([]OutTransaction, int, error)
	ListMovements(ctx context.Context, filters ListFilters) ([]Movement, int, error)
	ListMovementLines(ctx context.Context, filters ListFilters) ([]MovementLine, int, error)
}

// Service coordinates movement operations and their stock deltas.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return shared.NewValidationError("lines", "at least one line is required")
	}
	seen := map[uuid.UUID]struct{}{}
	fields := map[string]string{}
	for i, line := range lines {
		key := fmt.Sprintf("lines[%d]", i)
		if line.ItemID == uuid.Nil {
			fields[key+".item"] = "required"
		} else if _, dup := seen[line.ItemID]; dup {
			fields[key+".item"] = "duplicate item reference"
		}
		seen[line.ItemID] = struct{}{}
		if line.Quantity <= 0 {
			fields[key+".quantity"] = "must be greater than zero"
		}
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

// applyLines inserts the transfer lines for a new header and applies
// each line's stock delta under a row lock. The union feed rows are
// written here too so they always exist exactly once per line.
func applyLines(ctx context.Context, tx TxRepository, kind MovementKind, headerID uuid.UUID, lines []LineInput, sign int, actorID uuid.UUID, now time.Time) ([]Transfer, error) {
	transfers := make([]Transfer, 0, len(lines))
	for i, input := range lines {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		next := item.Stock + sign*input.Quantity
		if next < 0 {
			return nil, shared.NewValidationError("lines", fmt.Sprintf("insufficient stock for item %q", item.Name))
		}
		transfer := Transfer{
			ID:            uuid.New(),
			TransactionID: headerID,
			ItemID:        item.ID,
			ItemName:      item.Name,
			Quantity:      input.Quantity,
			Index:         i,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertTransfer(ctx, kind, transfer); err != nil {
			return nil, err
		}
		if err := tx.InsertMovementLine(ctx, kind, transfer.ID, i, now); err != nil {
			return nil, err
		}
		updated, err := tx.UpdateItemStock(ctx, item.ID, next)
		if err != nil {
			return nil, err
		}
		if err := tx.RecordHistory(ctx, history.EntityItem, updated.ID, actorID, updated); err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}
	return transfers, nil
}

// reverseLines applies the inverse (or the original, when un-voiding)
// delta for every line under an existing header.
func reverseLines(ctx context.Context, tx TxRepository, lines []Transfer, sign int, actorID uuid.UUID) error {
	for _, line := range lines {
		item, err := tx.GetItemForUpdate(ctx, line.ItemID)
		if err != nil {
			return err
		}
		next := item.Stock + sign*line.Quantity
		if next < 0 {
			return shared.NewValidationError("lines", fmt.Sprintf("stock for item %q would become negative", item.Name))
		}
		updated, err := tx.UpdateItemStock(ctx, item.ID, next)
		if err != nil {
			return err
		}
		if err := tx.RecordHistory(ctx, history.EntityItem, updated.ID, actorID, updated); err != nil {
			return err
		}
	}
	return nil
}

// CreateInbound records a receipt and increases stock for every line.
func (s *Service) CreateInbound(ctx context.Context, input InboundInput, actorID uuid.UUID) (InTransaction, error) {
	input.Supplier = strings.TrimSpace(input.Supplier)
	if input.Supplier == "" {
		return InTransaction{}, shared.NewValidationError("supplier", "required")
	}
	if err := validateLines(input.Lines); err != nil {
		return InTransaction{}, err
	}
	var created InTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := time.Now().UTC()
		header := InTransaction{
			ID:                    uuid.New(),
			Supplier:              input.Supplier,
			DeliveryReceipt:       input.DeliveryReceipt,
			DateOfDeliveryReceipt: input.DateOfDeliveryReceipt,
			DateReceived:          input.DateReceived,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.InsertInbound(ctx, header); err != nil {
			return err
		}
		if err := tx.InsertMovement(ctx, MovementIn, header.ID, now); err != nil {
			return err
		}
		transfers, err := applyLines(ctx, tx, MovementIn, header.ID, input.Lines, +1, actorID, now)
		if err != nil {
			return err
		}
		header.Transfers = transfers
		if err := tx.RecordHistory(ctx, history.EntityInTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		created = header
		return nil
	})
	if err != nil {
		return InTransaction{}, shared.Storage("ledger.create_inbound", err)
	}
	return created, nil
}

// CreateOutbound records a delivery and decreases stock for every line.
// A line that would drive stock negative rejects the whole request.
func (s *Service) CreateOutbound(ctx context.Context, input OutboundInput, actorID uuid.UUID) (OutTransaction, error) {
	input.Customer = strings.TrimSpace(input.Customer)
	if input.Customer == "" {
		return OutTransaction{}, shared.NewValidationError("customer", "required")
	}
	if err := validateLines(input.Lines); err != nil {
		return OutTransaction{}, err
	}
	var created OutTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := time.Now().UTC()
		header := OutTransaction{
			ID:                    uuid.New(),
			Customer:              input.Customer,
			DeliveryReceipt:       input.DeliveryReceipt,
			DateOfDeliveryReceipt: input.DateOfDeliveryReceipt,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.InsertOutbound(ctx, header); err != nil {
			return err
		}
		if err := tx.InsertMovement(ctx, MovementOut, header.ID, now); err != nil {
			return err
		}
		transfers, err := applyLines(ctx, tx, MovementOut, header.ID, input.Lines, -1, actorID, now)
		if err != nil {
			return err
		}
		header.Transfers = transfers
		if err := tx.RecordHistory(ctx, history.EntityOutTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		created = header
		return nil
	})
	if err != nil {
		return OutTransaction{}, shared.Storage("ledger.create_outbound", err)
	}
	return created, nil
}

// SetInboundVoid transitions the header to the requested void state.
// Requesting the state the header is already in fails with a conflict,
// which also rejects the loser of two concurrent toggles.
func (s *Service) SetInboundVoid(ctx context.Context, id uuid.UUID, desired bool, actorID uuid.UUID) (InTransaction, error) {
	if id == uuid.Nil {
		return InTransaction{}, shared.NewValidationError("id", "required")
	}
	var result InTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header, err := tx.GetInboundForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if header.Void == desired {
			return &shared.ConflictError{Detail: "void flag already holds the requested value"}
		}
		if err := tx.SetInboundVoid(ctx, id, desired); err != nil {
			return err
		}
		lines, err := tx.ListInboundLines(ctx, id)
		if err != nil {
			return err
		}
		// Inbound lines added stock. Voiding subtracts it back.
		sign := -1
		if !desired {
			sign = +1
		}
		if err := reverseLines(ctx, tx, lines, sign, actorID); err != nil {
			return err
		}
		header.Void = desired
		header.Transfers = lines
		if err := tx.RecordHistory(ctx, history.EntityInTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		result = header
		return nil
	})
	if err != nil {
		return InTransaction{}, shared.Storage("ledger.void_inbound", err)
	}
	return result, nil
}

// SetOutboundVoid mirrors SetInboundVoid with the opposite deltas.
func (s *Service) SetOutboundVoid(ctx context.Context, id uuid.UUID, desired bool, actorID uuid.UUID) (OutTransaction, error) {
	if id == uuid.Nil {
		return OutTransaction{}, shared.NewValidationError("id", "required")
	}
	var result OutTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header, err := tx.GetOutboundForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if header.Void == desired {
			return &shared.ConflictError{Detail: "void flag already holds the requested value"}
		}
		if err := tx.SetOutboundVoid(ctx, id, desired); err != nil {
			return err
		}
		lines, err := tx.ListOutboundLines(ctx, id)
		if err != nil {
			return err
		}
		// Outbound lines removed stock. Voiding adds it back.
		sign := +1
		if !desired {
			sign = -1
		}
		if err := reverseLines(ctx, tx, lines, sign, actorID); err != nil {
			return err
		}
		header.Void = desired
		header.Transfers = lines
		if err := tx.RecordHistory(ctx, history.EntityOutTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		result = header
		return nil
	})
	if err != nil {
		return OutTransaction{}, shared.Storage("ledger.void_outbound", err)
	}
	return result, nil
}

// UpdateInbound edits receipt metadata. Stock is never touched here.
func (s *Service) UpdateInbound(ctx context.Context, id uuid.UUID, update InboundUpdate, actorID uuid.UUID) (InTransaction, error) {
	if id == uuid.Nil {
		return InTransaction{}, shared.NewValidationError("id", "required")
	}
	update.Supplier = strings.TrimSpace(update.Supplier)
	if update.Supplier == "" {
		return InTransaction{}, shared.NewValidationError("supplier", "required")
	}
	var result InTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header, err := tx.UpdateInbound(ctx, id, update)
		if err != nil {
			return err
		}
		if header.Transfers, err = tx.ListInboundLines(ctx, id); err != nil {
			return err
		}
		if err := tx.RecordHistory(ctx, history.EntityInTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		result = header
		return nil
	})
	if err != nil {
		return InTransaction{}, shared.Storage("ledger.update_inbound", err)
	}
	return result, nil
}

// UpdateOutbound edits delivery metadata. Stock is never touched here.
func (s *Service) UpdateOutbound(ctx context.Context, id uuid.UUID, update OutboundUpdate, actorID uuid.UUID) (OutTransaction, error) {
	if id == uuid.Nil {
		return OutTransaction{}, shared.NewValidationError("id", "required")
	}
	update.Customer = strings.TrimSpace(update.Customer)
	if update.Customer == "" {
		return OutTransaction{}, shared.NewValidationError("customer", "required")
	}
	var result OutTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header, err := tx.UpdateOutbound(ctx, id, update)
		if err != nil {
			return err
		}
		if header.Transfers, err = tx.ListOutboundLines(ctx, id); err != nil {
			return err
		}
		if err := tx.RecordHistory(ctx, history.EntityOutTransaction, header.ID, actorID, header); err != nil {
			return err
		}
		result = header
		return nil
	})
	if err != nil {
		return OutTransaction{}, shared.Storage("ledger.update_outbound", err)
	}
	return result, nil
}

func (s *Service) GetInbound(ctx context.Context, id uuid.UUID) (InTransaction, error) {
	if id == uuid.Nil {
		return InTransaction{}, shared.NewValidationError("id", "required")
	}
	header, err := s.repo.GetInbound(ctx, id)
	if err != nil {
		return InTransaction{}, shared.Storage("ledger.get_inbound", err)
	}
	return header, nil
}

func (s *Service) GetOutbound(ctx context.Context, id uuid.UUID) (OutTransaction, error) {
	if id == uuid.Nil {
		return OutTransaction{}, shared.NewValidationError("id", "required")
	}
	header, err := s.repo.GetOutbound(ctx, id)
	if err != nil {
		return OutTransaction{}, shared.Storage("ledger.get_outbound", err)
	}
	return header, nil
}

func feedPage[T any](entries []T, total int, filters ListFilters, key func(T) shared.Cursor) ([]T, shared.Page) {
	limit := shared.ClampPageSize(filters.PageSize)
	page := shared.Page{Total: total}
	if len(entries) > limit {
		entries = entries[:limit]
		page.NextCursor = key(entries[len(entries)-1]).Encode()
	}
	return entries, page
}

func (s *Service) ListInbound(ctx context.Context, filters ListFilters) ([]InTransaction, shared.Page, error) {
	headers, total, err := s.repo.ListInbound(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("ledger.list_inbound", err)
	}
	headers, page := feedPage(headers, total, filters, func(t InTransaction) shared.Cursor {
		return shared.Cursor{Key: shared.TimeKey(t.CreatedAt), ID: t.ID}
	})
	return headers, page, nil
}

func (s *Service) ListOutbound(ctx context.Context, filters ListFilters) ([]OutTransaction, shared.Page, error) {
	headers, total, err := s.repo.ListOutbound(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("ledger.list_outbound", err)
	}
	headers, page := feedPage(headers, total, filters, func(t OutTransaction) shared.Cursor {
		return shared.Cursor{Key: shared.TimeKey(t.CreatedAt), ID: t.ID}
	})
	return headers, page, nil
}

// ListMovements returns the combined chronological feed of receipts and
// deliveries.
func (s *Service) ListMovements(ctx context.Context, filters ListFilters) ([]Movement, shared.Page, error) {
	movements, total, err := s.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("ledger.list_movements", err)
	}
	movements, page := feedPage(movements, total, filters, func(m Movement) shared.Cursor {
		return shared.Cursor{Key: shared.TimeKey(m.CreatedAt), ID: m.ID}
	})
	return movements, page, nil
}

// ListMovementLines returns the combined feed of transfer lines.
func (s *Service) ListMovementLines(ctx context.Context, filters ListFilters) ([]MovementLine, shared.Page, error) {
	lines, total, err := s.repo.ListMovementLines(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("ledger.list_movement_lines", err)
	}
	lines, page := feedPage(lines, total, filters, func(ml MovementLine) shared.Cursor {
		return shared.Cursor{Key: shared.TimeKey(ml.CreatedAt), ID: ml.ID}
	})
	return lines, page, nil
}
