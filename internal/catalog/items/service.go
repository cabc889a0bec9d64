package items

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Service exposes the item catalog operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func cursorKey(sortBy string, item Item) string {
	switch sortBy {
	case "unit":
		return item.UnitName
	case "category":
		return item.CategoryName
	case "stock":
		return strconv.Itoa(item.Stock)
	case "safetyStock":
		return strconv.Itoa(item.SafetyStock)
	case "createdAt":
		return shared.TimeKey(item.CreatedAt)
	default:
		return item.Name
	}
}

func (s *Service) page(items []Item, total int, filters catshared.ListFilters) ([]Item, shared.Page, error) {
	limit := shared.ClampPageSize(filters.PageSize)
	page := shared.Page{Total: total}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		page.NextCursor = shared.Cursor{Key: cursorKey(filters.SortBy, last), ID: last.ID}.Encode()
	}
	return items, page, nil
}

func (s *Service) List(ctx context.Context, filters catshared.ListFilters) ([]Item, shared.Page, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("items.list", err)
	}
	return s.page(items, total, filters)
}

// ListAlerts lists active items whose stock has fallen below safety stock.
func (s *Service) ListAlerts(ctx context.Context, filters catshared.ListFilters) ([]Item, shared.Page, error) {
	items, total, err := s.repo.ListAlerts(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("items.alerts", err)
	}
	return s.page(items, total, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if id == uuid.Nil {
		return Item{}, shared.NewValidationError("id", "required")
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, shared.Storage("items.get", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, input Input, actorID uuid.UUID) (Item, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return Item{}, err
	}
	item, err := s.repo.Create(ctx, input, actorID)
	if err != nil {
		return Item{}, shared.Storage("items.create", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (Item, error) {
	if id == uuid.Nil {
		return Item{}, shared.NewValidationError("id", "required")
	}
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return Item{}, err
	}
	item, err := s.repo.Update(ctx, id, input, actorID)
	if err != nil {
		return Item{}, shared.Storage("items.update", err)
	}
	return item, nil
}

func (s *Service) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Item, error) {
	if id == uuid.Nil {
		return Item{}, shared.NewValidationError("id", "required")
	}
	item, err := s.repo.SoftDelete(ctx, id, actorID)
	if err != nil {
		return Item{}, shared.Storage("items.delete", err)
	}
	return item, nil
}

func (s *Service) Restore(ctx context.Context, id, actorID uuid.UUID) (Item, error) {
	if id == uuid.Nil {
		return Item{}, shared.NewValidationError("id", "required")
	}
	item, err := s.repo.Restore(ctx, id, actorID)
	if err != nil {
		return Item{}, shared.Storage("items.restore", err)
	}
	return item, nil
}
