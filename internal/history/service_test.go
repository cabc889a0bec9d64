package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fcgregorio/jbj-trading/internal/shared"
)

type memoryRepository struct {
	entries []Entry
}

func (r *memoryRepository) List(_ context.Context, entity EntityKind, entityID uuid.UUID, before int64, limit int) ([]Entry, int, error) {
	matched := []Entry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.Entity != entity || e.EntityID != entityID {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	rows := []Entry{}
	for _, e := range matched {
		if before > 0 && e.HistoryID >= before {
			continue
		}
		rows = append(rows, e)
		if len(rows) == limit {
			break
		}
	}
	return rows, total, nil
}

func TestListPagesNewestFirst(t *testing.T) {
	entityID := uuid.New()
	repo := &memoryRepository{}
	for i := int64(1); i <= 5; i++ {
		repo.entries = append(repo.entries, Entry{
			HistoryID:  i,
			Entity:     EntityItem,
			EntityID:   entityID,
			ActorID:    uuid.New(),
			Snapshot:   []byte(`{}`),
			RecordedAt: time.Now(),
		})
	}
	svc := NewService(repo)

	first, page, err := svc.List(context.Background(), EntityItem, entityID, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 5, page.Total)
	require.Equal(t, int64(5), first[0].HistoryID)
	require.Equal(t, shared.EncodeSeqCursor(4), page.NextCursor)

	second, page, err := svc.List(context.Background(), EntityItem, entityID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), second[0].HistoryID)
	require.NotEmpty(t, page.NextCursor)

	last, page, err := svc.List(context.Background(), EntityItem, entityID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Equal(t, int64(1), last[0].HistoryID)
	require.Empty(t, page.NextCursor)
}

func TestListValidatesArguments(t *testing.T) {
	svc := NewService(&memoryRepository{})

	_, _, err := svc.List(context.Background(), EntityKind("bogus"), uuid.New(), "", 10)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, _, err = svc.List(context.Background(), EntityItem, uuid.Nil, "", 10)
	require.ErrorIs(t, err, shared.ErrValidation)
}
