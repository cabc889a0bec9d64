package units

import (
	"context"

	"github.com/google/uuid"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Service coordinates unit operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of units plus the total matching the filter.
func (s *Service) List(ctx context.Context, filters catshared.ListFilters) ([]Unit, shared.Page, error) {
	limit := shared.ClampPageSize(filters.PageSize)
	units, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("units: list", err)
	}
	page := shared.Page{Total: total}
	if len(units) > limit {
		units = units[:limit]
		last := units[len(units)-1]
		page.NextCursor = shared.Cursor{Key: last.Name, ID: last.ID}.Encode()
	}
	return units, page, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Unit, error) {
	if id == uuid.Nil {
		return Unit{}, shared.NewValidationError("id", "required")
	}
	unit, err := s.repo.Get(ctx, id)
	return unit, shared.Storage("units: get", err)
}

func (s *Service) Create(ctx context.Context, name string, actorID uuid.UUID) (Unit, error) {
	unit := Unit{Name: normalizeName(name)}
	if err := validate(unit); err != nil {
		return Unit{}, err
	}
	created, err := s.repo.Create(ctx, unit, actorID)
	return created, shared.Storage("units: create", err)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, actorID uuid.UUID) (Unit, error) {
	unit := Unit{ID: id, Name: normalizeName(name)}
	if id == uuid.Nil {
		return Unit{}, shared.NewValidationError("id", "required")
	}
	if err := validate(unit); err != nil {
		return Unit{}, err
	}
	updated, err := s.repo.Update(ctx, unit, actorID)
	return updated, shared.Storage("units: update", err)
}

func (s *Service) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (Unit, error) {
	if id == uuid.Nil {
		return Unit{}, shared.NewValidationError("id", "required")
	}
	deleted, err := s.repo.SoftDelete(ctx, id, actorID)
	return deleted, shared.Storage("units: soft delete", err)
}

func (s *Service) Restore(ctx context.Context, id, actorID uuid.UUID) (Unit, error) {
	if id == uuid.Nil {
		return Unit{}, shared.NewValidationError("id", "required")
	}
	restored, err := s.repo.Restore(ctx, id, actorID)
	return restored, shared.Storage("units: restore", err)
}
