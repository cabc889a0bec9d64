package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fcgregorio/jbj-trading/internal/catalog/items"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

type memHistory struct {
	entity   history.EntityKind
	entityID uuid.UUID
	actorID  uuid.UUID
}

type memState struct {
	items    map[uuid.UUID]ItemStock
	inbound  map[uuid.UUID]InTransaction
	outbound map[uuid.UUID]OutTransaction
	inLines  map[uuid.UUID][]Transfer
	outLines map[uuid.UUID][]Transfer
	history  []memHistory
}

func (s *memState) clone() *memState {
	next := &memState{
		items:    make(map[uuid.UUID]ItemStock, len(s.items)),
		inbound:  make(map[uuid.UUID]InTransaction, len(s.inbound)),
		outbound: make(map[uuid.UUID]OutTransaction, len(s.outbound)),
		inLines:  make(map[uuid.UUID][]Transfer, len(s.inLines)),
		outLines: make(map[uuid.UUID][]Transfer, len(s.outLines)),
		history:  append([]memHistory{}, s.history...),
	}
	for k, v := range s.items {
		next.items[k] = v
	}
	for k, v := range s.inbound {
		next.inbound[k] = v
	}
	for k, v := range s.outbound {
		next.outbound[k] = v
	}
	for k, v := range s.inLines {
		next.inLines[k] = append([]Transfer{}, v...)
	}
	for k, v := range s.outLines {
		next.outLines[k] = append([]Transfer{}, v...)
	}
	return next
}

// memoryRepo commits the transactional clone only when the callback
// succeeds, matching the rollback semantics of the real store.
type memoryRepo struct {
	state *memState
}

type memoryTx struct {
	state *memState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memState{
		items:    map[uuid.UUID]ItemStock{},
		inbound:  map[uuid.UUID]InTransaction{},
		outbound: map[uuid.UUID]OutTransaction{},
		inLines:  map[uuid.UUID][]Transfer{},
		outLines: map[uuid.UUID][]Transfer{},
	}}
}

func (r *memoryRepo) addItem(name string, stock int) uuid.UUID {
	id := uuid.New()
	r.state.items[id] = ItemStock{ID: id, Name: name, Stock: stock}
	return id
}

func (r *memoryRepo) stock(id uuid.UUID) int {
	return r.state.items[id].Stock
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	clone := r.state.clone()
	if err := fn(ctx, &memoryTx{state: clone}); err != nil {
		return err
	}
	r.state = clone
	return nil
}

func (r *memoryRepo) GetInbound(ctx context.Context, id uuid.UUID) (InTransaction, error) {
	header, ok := r.state.inbound[id]
	if !ok {
		return InTransaction{}, shared.ErrNotFound
	}
	header.Transfers = append([]Transfer{}, r.state.inLines[id]...)
	return header, nil
}

func (r *memoryRepo) GetOutbound(ctx context.Context, id uuid.UUID) (OutTransaction, error) {
	header, ok := r.state.outbound[id]
	if !ok {
		return OutTransaction{}, shared.ErrNotFound
	}
	header.Transfers = append([]Transfer{}, r.state.outLines[id]...)
	return header, nil
}

func (r *memoryRepo) ListInbound(ctx context.Context, filters ListFilters) ([]InTransaction, int, error) {
	result := []InTransaction{}
	for _, header := range r.state.inbound {
		result = append(result, header)
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListOutbound(ctx context.Context, filters ListFilters) ([]OutTransaction, int, error) {
	result := []OutTransaction{}
	for _, header := range r.state.outbound {
		result = append(result, header)
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filters ListFilters) ([]Movement, int, error) {
	result := []Movement{}
	for id, header := range r.state.inbound {
		h := header
		result = append(result, Movement{ID: id, Kind: MovementIn, In: &h, CreatedAt: header.CreatedAt, UpdatedAt: header.UpdatedAt})
	}
	for id, header := range r.state.outbound {
		h := header
		result = append(result, Movement{ID: id, Kind: MovementOut, Out: &h, CreatedAt: header.CreatedAt, UpdatedAt: header.UpdatedAt})
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListMovementLines(ctx context.Context, filters ListFilters) ([]MovementLine, int, error) {
	result := []MovementLine{}
	for _, lines := range r.state.inLines {
		for _, line := range lines {
			result = append(result, MovementLine{ID: line.ID, Kind: MovementIn, Line: line, Index: line.Index})
		}
	}
	for _, lines := range r.state.outLines {
		for _, line := range lines {
			result = append(result, MovementLine{ID: line.ID, Kind: MovementOut, Line: line, Index: line.Index})
		}
	}
	return result, len(result), nil
}

func (tx *memoryTx) InsertInbound(ctx context.Context, header InTransaction) error {
	header.Transfers = nil
	tx.state.inbound[header.ID] = header
	return nil
}

func (tx *memoryTx) InsertOutbound(ctx context.Context, header OutTransaction) error {
	header.Transfers = nil
	tx.state.outbound[header.ID] = header
	return nil
}

func (tx *memoryTx) InsertTransfer(ctx context.Context, kind MovementKind, line Transfer) error {
	if kind == MovementIn {
		tx.state.inLines[line.TransactionID] = append(tx.state.inLines[line.TransactionID], line)
	} else {
		tx.state.outLines[line.TransactionID] = append(tx.state.outLines[line.TransactionID], line)
	}
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, kind MovementKind, headerID uuid.UUID, at time.Time) error {
	return nil
}

func (tx *memoryTx) InsertMovementLine(ctx context.Context, kind MovementKind, lineID uuid.UUID, index int, at time.Time) error {
	return nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (ItemStock, error) {
	item, ok := tx.state.items[itemID]
	if !ok {
		return ItemStock{}, shared.NewValidationError("item", "does not reference an active item")
	}
	return item, nil
}

func (tx *memoryTx) UpdateItemStock(ctx context.Context, itemID uuid.UUID, stock int) (items.Item, error) {
	item := tx.state.items[itemID]
	item.Stock = stock
	tx.state.items[itemID] = item
	return items.Item{ID: item.ID, Name: item.Name, Stock: item.Stock}, nil
}

func (tx *memoryTx) GetInboundForUpdate(ctx context.Context, id uuid.UUID) (InTransaction, error) {
	header, ok := tx.state.inbound[id]
	if !ok {
		return InTransaction{}, shared.ErrNotFound
	}
	return header, nil
}

func (tx *memoryTx) GetOutboundForUpdate(ctx context.Context, id uuid.UUID) (OutTransaction, error) {
	header, ok := tx.state.outbound[id]
	if !ok {
		return OutTransaction{}, shared.ErrNotFound
	}
	return header, nil
}

func (tx *memoryTx) SetInboundVoid(ctx context.Context, id uuid.UUID, desired bool) error {
	header := tx.state.inbound[id]
	if header.Void == desired {
		return &shared.ConflictError{Detail: "void flag already holds the requested value"}
	}
	header.Void = desired
	tx.state.inbound[id] = header
	return nil
}

func (tx *memoryTx) SetOutboundVoid(ctx context.Context, id uuid.UUID, desired bool) error {
	header := tx.state.outbound[id]
	if header.Void == desired {
		return &shared.ConflictError{Detail: "void flag already holds the requested value"}
	}
	header.Void = desired
	tx.state.outbound[id] = header
	return nil
}

func (tx *memoryTx) UpdateInbound(ctx context.Context, id uuid.UUID, update InboundUpdate) (InTransaction, error) {
	header, ok := tx.state.inbound[id]
	if !ok {
		return InTransaction{}, shared.ErrNotFound
	}
	header.Supplier = update.Supplier
	header.DeliveryReceipt = update.DeliveryReceipt
	header.DateOfDeliveryReceipt = update.DateOfDeliveryReceipt
	header.DateReceived = update.DateReceived
	tx.state.inbound[id] = header
	return header, nil
}

func (tx *memoryTx) UpdateOutbound(ctx context.Context, id uuid.UUID, update OutboundUpdate) (OutTransaction, error) {
	header, ok := tx.state.outbound[id]
	if !ok {
		return OutTransaction{}, shared.ErrNotFound
	}
	header.Customer = update.Customer
	header.DeliveryReceipt = update.DeliveryReceipt
	header.DateOfDeliveryReceipt = update.DateOfDeliveryReceipt
	tx.state.outbound[id] = header
	return header, nil
}

func (tx *memoryTx) ListInboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error) {
	return append([]Transfer{}, tx.state.inLines[headerID]...), nil
}

func (tx *memoryTx) ListOutboundLines(ctx context.Context, headerID uuid.UUID) ([]Transfer, error) {
	return append([]Transfer{}, tx.state.outLines[headerID]...), nil
}

func (tx *memoryTx) RecordHistory(ctx context.Context, entity history.EntityKind, entityID, actorID uuid.UUID, snapshot any) error {
	tx.state.history = append(tx.state.history, memHistory{entity: entity, entityID: entityID, actorID: actorID})
	return nil
}

func countHistory(repo *memoryRepo, entity history.EntityKind, entityID uuid.UUID) int {
	count := 0
	for _, h := range repo.state.history {
		if h.entity == entity && h.entityID == entityID {
			count++
		}
	}
	return count
}

func TestCreateInboundAdjustsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := uuid.New()

	bolts := repo.addItem("bolts", 3)
	nuts := repo.addItem("nuts", 0)

	created, err := svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme Hardware",
		Lines: []LineInput{
			{ItemID: bolts, Quantity: 7},
			{ItemID: nuts, Quantity: 12},
		},
	}, actor)
	require.NoError(t, err)
	require.False(t, created.Void)
	require.Len(t, created.Transfers, 2)
	require.Equal(t, 0, created.Transfers[0].Index)
	require.Equal(t, 1, created.Transfers[1].Index)
	require.Equal(t, 10, repo.stock(bolts))
	require.Equal(t, 12, repo.stock(nuts))
	require.Equal(t, 1, countHistory(repo, history.EntityInTransaction, created.ID))
	require.Equal(t, 1, countHistory(repo, history.EntityItem, bolts))
	require.Equal(t, 1, countHistory(repo, history.EntityItem, nuts))
}

func TestCreateOutboundRejectsInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	bolts := repo.addItem("bolts", 5)

	_, err := svc.CreateOutbound(ctx, OutboundInput{
		Customer: "Riverside Builders",
		Lines:    []LineInput{{ItemID: bolts, Quantity: 8}},
	}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, 5, repo.stock(bolts))
	require.Empty(t, repo.state.outbound)
	require.Empty(t, repo.state.history)
}

func TestCreateRejectsEmptyAndDuplicateLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	bolts := repo.addItem("bolts", 5)

	_, err := svc.CreateInbound(ctx, InboundInput{Supplier: "Acme"}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme",
		Lines: []LineInput{
			{ItemID: bolts, Quantity: 1},
			{ItemID: bolts, Quantity: 2},
		},
	}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme",
		Lines:    []LineInput{{ItemID: bolts, Quantity: 0}},
	}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)

	require.Empty(t, repo.state.inbound)
	require.Equal(t, 5, repo.stock(bolts))
}

func TestVoidRoundTripRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := uuid.New()

	bolts := repo.addItem("bolts", 3)
	nuts := repo.addItem("nuts", 1)

	created, err := svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme Hardware",
		Lines: []LineInput{
			{ItemID: bolts, Quantity: 7},
			{ItemID: nuts, Quantity: 2},
		},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 10, repo.stock(bolts))
	require.Equal(t, 3, repo.stock(nuts))

	voided, err := svc.SetInboundVoid(ctx, created.ID, true, actor)
	require.NoError(t, err)
	require.True(t, voided.Void)
	require.Equal(t, 3, repo.stock(bolts))
	require.Equal(t, 1, repo.stock(nuts))

	restored, err := svc.SetInboundVoid(ctx, created.ID, false, actor)
	require.NoError(t, err)
	require.False(t, restored.Void)
	require.Equal(t, 10, repo.stock(bolts))
	require.Equal(t, 3, repo.stock(nuts))
}

func TestVoidToggleConflictsOnRepeat(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := uuid.New()

	bolts := repo.addItem("bolts", 10)

	created, err := svc.CreateOutbound(ctx, OutboundInput{
		Customer: "Riverside Builders",
		Lines:    []LineInput{{ItemID: bolts, Quantity: 8}},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 2, repo.stock(bolts))

	_, err = svc.SetOutboundVoid(ctx, created.ID, true, actor)
	require.NoError(t, err)
	require.Equal(t, 10, repo.stock(bolts))

	_, err = svc.SetOutboundVoid(ctx, created.ID, true, actor)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, 10, repo.stock(bolts))
}

func TestVoidWritesOneHistoryRowPerEntity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := uuid.New()

	bolts := repo.addItem("bolts", 3)
	nuts := repo.addItem("nuts", 4)

	created, err := svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme Hardware",
		Lines: []LineInput{
			{ItemID: bolts, Quantity: 1},
			{ItemID: nuts, Quantity: 1},
		},
	}, actor)
	require.NoError(t, err)

	_, err = svc.SetInboundVoid(ctx, created.ID, true, actor)
	require.NoError(t, err)

	require.Equal(t, 2, countHistory(repo, history.EntityInTransaction, created.ID))
	require.Equal(t, 2, countHistory(repo, history.EntityItem, bolts))
	require.Equal(t, 2, countHistory(repo, history.EntityItem, nuts))
}

func TestUpdateInboundLeavesStockAlone(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := uuid.New()

	bolts := repo.addItem("bolts", 0)

	created, err := svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme Hardware",
		Lines:    []LineInput{{ItemID: bolts, Quantity: 5}},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 5, repo.stock(bolts))

	receipt := "DR-100"
	updated, err := svc.UpdateInbound(ctx, created.ID, InboundUpdate{Supplier: "Acme Industrial", DeliveryReceipt: &receipt}, actor)
	require.NoError(t, err)
	require.Equal(t, "Acme Industrial", updated.Supplier)
	require.Equal(t, 5, repo.stock(bolts))
	require.Equal(t, 2, countHistory(repo, history.EntityInTransaction, created.ID))
}

func TestUnknownItemRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateInbound(ctx, InboundInput{
		Supplier: "Acme",
		Lines:    []LineInput{{ItemID: uuid.New(), Quantity: 1}},
	}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)
}
