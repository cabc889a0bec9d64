package items

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

type memoryRepository struct {
	items      map[uuid.UUID]Item
	units      map[uuid.UUID]string
	categories map[uuid.UUID]string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		items:      map[uuid.UUID]Item{},
		units:      map[uuid.UUID]string{},
		categories: map[uuid.UUID]string{},
	}
}

func (r *memoryRepository) checkReferences(input Input) error {
	fields := map[string]string{}
	if _, ok := r.units[input.UnitID]; !ok {
		fields["unit"] = "unknown or deleted unit"
	}
	if _, ok := r.categories[input.CategoryID]; !ok {
		fields["category"] = "unknown or deleted category"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

func (r *memoryRepository) list(filters catshared.ListFilters, alertsOnly bool) ([]Item, int, error) {
	rows := []Item{}
	for _, i := range r.items {
		if i.DeletedAt != nil && !filters.IncludeDeleted {
			continue
		}
		if alertsOnly && (i.DeletedAt != nil || !i.BelowSafetyStock()) {
			continue
		}
		rows = append(rows, i)
	}
	sort.Slice(rows, func(a, b int) bool {
		if filters.SortDir == catshared.SortDesc {
			a, b = b, a
		}
		switch filters.SortBy {
		case "stock":
			if rows[a].Stock != rows[b].Stock {
				return rows[a].Stock < rows[b].Stock
			}
		default:
			if rows[a].Name != rows[b].Name {
				return rows[a].Name < rows[b].Name
			}
		}
		return rows[a].ID.String() < rows[b].ID.String()
	})
	total := len(rows)
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		for idx, i := range rows {
			if i.ID == cursor.ID {
				rows = rows[idx+1:]
				break
			}
		}
	}
	limit := shared.ClampPageSize(filters.PageSize)
	if len(rows) > limit+1 {
		rows = rows[:limit+1]
	}
	return rows, total, nil
}

func (r *memoryRepository) List(_ context.Context, filters catshared.ListFilters) ([]Item, int, error) {
	return r.list(filters, false)
}

func (r *memoryRepository) ListAlerts(_ context.Context, filters catshared.ListFilters) ([]Item, int, error) {
	return r.list(filters, true)
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (Item, error) {
	i, ok := r.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return i, nil
}

func (r *memoryRepository) Create(_ context.Context, input Input, _ uuid.UUID) (Item, error) {
	if err := r.checkReferences(input); err != nil {
		return Item{}, err
	}
	for _, existing := range r.items {
		if existing.DeletedAt == nil && existing.Name == input.Name {
			return Item{}, &shared.ConflictError{Detail: "item name already in use"}
		}
	}
	now := time.Now()
	item := Item{
		ID:           uuid.New(),
		Name:         input.Name,
		SafetyStock:  input.SafetyStock,
		Stock:        input.Stock,
		Remarks:      input.Remarks,
		UnitID:       input.UnitID,
		CategoryID:   input.CategoryID,
		UnitName:     r.units[input.UnitID],
		CategoryName: r.categories[input.CategoryID],
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepository) Update(_ context.Context, id uuid.UUID, input Input, _ uuid.UUID) (Item, error) {
	current, ok := r.items[id]
	if !ok || current.DeletedAt != nil {
		return Item{}, shared.ErrNotFound
	}
	if err := r.checkReferences(input); err != nil {
		return Item{}, err
	}
	current.Name = input.Name
	current.SafetyStock = input.SafetyStock
	current.Stock = input.Stock
	current.Remarks = input.Remarks
	current.UnitID = input.UnitID
	current.CategoryID = input.CategoryID
	current.UpdatedAt = time.Now()
	r.items[id] = current
	return current, nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id, _ uuid.UUID) (Item, error) {
	current, ok := r.items[id]
	if !ok || current.DeletedAt != nil {
		return Item{}, shared.ErrNotFound
	}
	now := time.Now()
	current.DeletedAt = &now
	r.items[id] = current
	return current, nil
}

func (r *memoryRepository) Restore(_ context.Context, id, _ uuid.UUID) (Item, error) {
	current, ok := r.items[id]
	if !ok || current.DeletedAt == nil {
		return Item{}, shared.ErrNotFound
	}
	current.DeletedAt = nil
	r.items[id] = current
	return current, nil
}

func seedRefs(repo *memoryRepository) (uuid.UUID, uuid.UUID) {
	unitID := uuid.New()
	categoryID := uuid.New()
	repo.units[unitID] = "piece"
	repo.categories[categoryID] = "hardware"
	return unitID, categoryID
}

func TestCreateRejectsBadInput(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	unitID, categoryID := seedRefs(repo)
	actor := uuid.New()

	cases := []struct {
		name  string
		input Input
		field string
	}{
		{"missing name", Input{UnitID: unitID, CategoryID: categoryID}, "name"},
		{"negative stock", Input{Name: "nails", Stock: -1, UnitID: unitID, CategoryID: categoryID}, "stock"},
		{"negative safety stock", Input{Name: "nails", SafetyStock: -1, UnitID: unitID, CategoryID: categoryID}, "safetyStock"},
		{"missing unit", Input{Name: "nails", CategoryID: categoryID}, "unit"},
		{"missing category", Input{Name: "nails", UnitID: unitID}, "category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input, actor)
			require.ErrorIs(t, err, shared.ErrValidation)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), Input{
		Name:       "nails",
		UnitID:     uuid.New(),
		CategoryID: uuid.New(),
	}, uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "unit")
	require.Contains(t, verr.Fields, "category")
}

func TestListAlertsFollowsStockLevel(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	unitID, categoryID := seedRefs(repo)
	actor := uuid.New()

	low, err := svc.Create(context.Background(), Input{
		Name: "low", Stock: 2, SafetyStock: 5, UnitID: unitID, CategoryID: categoryID,
	}, actor)
	require.NoError(t, err)
	healthy, err := svc.Create(context.Background(), Input{
		Name: "healthy", Stock: 10, SafetyStock: 5, UnitID: unitID, CategoryID: categoryID,
	}, actor)
	require.NoError(t, err)
	// Stock equal to safety stock is not an alert.
	_, err = svc.Create(context.Background(), Input{
		Name: "boundary", Stock: 5, SafetyStock: 5, UnitID: unitID, CategoryID: categoryID,
	}, actor)
	require.NoError(t, err)

	alerts, page, err := svc.ListAlerts(context.Background(), catshared.ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, alerts, 1)
	require.Equal(t, low.ID, alerts[0].ID)

	// Restocking clears the alert.
	_, err = svc.Update(context.Background(), low.ID, Input{
		Name: "low", Stock: 8, SafetyStock: 5, UnitID: unitID, CategoryID: categoryID,
	}, actor)
	require.NoError(t, err)
	alerts, _, err = svc.ListAlerts(context.Background(), catshared.ListFilters{})
	require.NoError(t, err)
	require.Empty(t, alerts)

	_, err = svc.SoftDelete(context.Background(), healthy.ID, actor)
	require.NoError(t, err)
}

func TestListCursorKeyTracksSortField(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	unitID, categoryID := seedRefs(repo)
	actor := uuid.New()

	for i, stock := range []int{3, 1, 2} {
		_, err := svc.Create(context.Background(), Input{
			Name:   "item-" + strconv.Itoa(i),
			Stock:  stock,
			UnitID: unitID, CategoryID: categoryID,
		}, actor)
		require.NoError(t, err)
	}

	page1, page, err := svc.List(context.Background(), catshared.ListFilters{SortBy: "stock", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, []int{1, 2}, []int{page1[0].Stock, page1[1].Stock})

	cursor, ok := shared.DecodeCursor(page.NextCursor)
	require.True(t, ok)
	require.Equal(t, strconv.Itoa(page1[1].Stock), cursor.Key)
	require.Equal(t, page1[1].ID, cursor.ID)

	page2, page, err := svc.List(context.Background(), catshared.ListFilters{
		SortBy: "stock", PageSize: 2, Cursor: page.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	require.Equal(t, 3, page2[0].Stock)
	require.Empty(t, page.NextCursor)
}
