package categories

import (
	"context"

	"github.com/google/uuid"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters catshared.ListFilters) ([]Category, shared.Page, error) {
	limit := shared.ClampPageSize(filters.PageSize)
	categories, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("categories: list", err)
	}
	page := shared.Page{Total: total}
	if len(categories) > limit {
		categories = categories[:limit]
		last := categories[len(categories)-1]
		page.NextCursor = shared.Cursor{Key: last.Name, ID: last.ID}.Encode()
	}
	return categories, page, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	if id == uuid.Nil {
		return Category{}, shared.NewValidationError("id", "required")
	}
	category, err := s.repo.Get(ctx, id)
	return category, shared.Storage("categories: get", err)
}

func (s *Service) Create(ctx context.Context, name string, actorID uuid.UUID) (Category, error) {
	category := Category{Name: normalizeName(name)}
	if err := validate(category); err != nil {
		return Category{}, err
	}
	created, err := s.repo.Create(ctx, category, actorID)
	return created, shared.Storage("categories: create", err)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, actorID uuid.UUID) (Category, error) {
	if id == uuid.Nil {
		return Category{}, shared.NewValidationError("id", "required")
	}
	category := Category{ID: id, Name: normalizeName(name)}
	if err := validate(category); err != nil {
		return Category{}, err
	}
	updated, err := s.repo.Update(ctx, category, actorID)
	return updated, shared.Storage("categories: update", err)
}

func (s *Service) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Category, error) {
	if id == uuid.Nil {
		return Category{}, shared.NewValidationError("id", "required")
	}
	deleted, err := s.repo.SoftDelete(ctx, id, actorID)
	return deleted, shared.Storage("categories: soft delete", err)
}

func (s *Service) Restore(ctx context.Context, id, actorID uuid.UUID) (Category, error) {
	if id == uuid.Nil {
		return Category{}, shared.NewValidationError("id", "required")
	}
	restored, err := s.repo.Restore(ctx, id, actorID)
	return restored, shared.Storage("categories: restore", err)
}
