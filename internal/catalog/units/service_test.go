package units

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// memoryRepository mirrors the PostgreSQL repository over a map: partial
// unique name among active rows, limit+1 keyset pages sorted by name.
type memoryRepository struct {
	units map[uuid.UUID]Unit
	// referenced marks units that active items point at, so soft
	// deletes can be refused the way the foreign key check does.
	referenced map[uuid.UUID]bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		units:      map[uuid.UUID]Unit{},
		referenced: map[uuid.UUID]bool{},
	}
}

func (r *memoryRepository) nameTaken(name string, except uuid.UUID) bool {
	for id, u := range r.units {
		if id != except && u.DeletedAt == nil && u.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryRepository) List(_ context.Context, filters catshared.ListFilters) ([]Unit, int, error) {
	rows := []Unit{}
	for _, u := range r.units {
		if u.DeletedAt != nil && !filters.IncludeDeleted {
			continue
		}
		rows = append(rows, u)
	}
	sort.Slice(rows, func(i, j int) bool {
		if filters.SortDir == catshared.SortDesc {
			i, j = j, i
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	total := len(rows)
	if cursor, ok := shared.DecodeCursor(filters.Cursor); ok {
		for i, u := range rows {
			if u.Name == cursor.Key && u.ID == cursor.ID {
				rows = rows[i+1:]
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

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return Unit{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) Create(_ context.Context, unit Unit, _ uuid.UUID) (Unit, error) {
	if r.nameTaken(unit.Name, uuid.Nil) {
		return Unit{}, &shared.ConflictError{Detail: fmt.Sprintf("unit %q already exists", unit.Name)}
	}
	unit.ID = uuid.New()
	unit.CreatedAt = time.Now()
	unit.UpdatedAt = unit.CreatedAt
	r.units[unit.ID] = unit
	return unit, nil
}

func (r *memoryRepository) Update(_ context.Context, unit Unit, _ uuid.UUID) (Unit, error) {
	current, ok := r.units[unit.ID]
	if !ok || current.DeletedAt != nil {
		return Unit{}, shared.ErrNotFound
	}
	if r.nameTaken(unit.Name, unit.ID) {
		return Unit{}, &shared.ConflictError{Detail: fmt.Sprintf("unit %q already exists", unit.Name)}
	}
	current.Name = unit.Name
	current.UpdatedAt = time.Now()
	r.units[unit.ID] = current
	return current, nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id, _ uuid.UUID) (Unit, error) {
	current, ok := r.units[id]
	if !ok || current.DeletedAt != nil {
		return Unit{}, shared.ErrNotFound
	}
	if r.referenced[id] {
		return Unit{}, &shared.ConflictError{Detail: "unit is referenced by active items"}
	}
	now := time.Now()
	current.DeletedAt = &now
	r.units[id] = current
	return current, nil
}

func (r *memoryRepository) Restore(_ context.Context, id, _ uuid.UUID) (Unit, error) {
	current, ok := r.units[id]
	if !ok || current.DeletedAt == nil {
		return Unit{}, shared.ErrNotFound
	}
	current.DeletedAt = nil
	r.units[id] = current
	return current, nil
}

func TestCreateTrimsAndValidatesName(t *testing.T) {
	svc := NewService(newMemoryRepository())
	actor := uuid.New()

	created, err := svc.Create(context.Background(), "  piece  ", actor)
	require.NoError(t, err)
	require.Equal(t, "piece", created.Name)

	_, err = svc.Create(context.Background(), "   ", actor)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	svc := NewService(newMemoryRepository())
	actor := uuid.New()

	_, err := svc.Create(context.Background(), "box", actor)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "box", actor)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeletedNameIsReusable(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	actor := uuid.New()

	first, err := svc.Create(context.Background(), "roll", actor)
	require.NoError(t, err)
	_, err = svc.SoftDelete(context.Background(), first.ID, actor)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "roll", actor)
	require.NoError(t, err)
}

func TestSoftDeleteRefusedWhileReferenced(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	actor := uuid.New()

	unit, err := svc.Create(context.Background(), "sack", actor)
	require.NoError(t, err)
	repo.referenced[unit.ID] = true

	_, err = svc.SoftDelete(context.Background(), unit.ID, actor)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRestoreMissingUnit(t *testing.T) {
	svc := NewService(newMemoryRepository())

	_, err := svc.Restore(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPagesByNameKeyset(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	actor := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), fmt.Sprintf("unit-%02d", i), actor)
		require.NoError(t, err)
	}

	first, page, err := svc.List(context.Background(), catshared.ListFilters{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 5, page.Total)
	require.NotEmpty(t, page.NextCursor)
	require.Equal(t, "unit-00", first[0].Name)

	second, page, err := svc.List(context.Background(), catshared.ListFilters{PageSize: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, "unit-02", second[0].Name)
	require.NotEmpty(t, page.NextCursor)

	last, page, err := svc.List(context.Background(), catshared.ListFilters{PageSize: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Equal(t, "unit-04", last[0].Name)
	require.Empty(t, page.NextCursor)
}
