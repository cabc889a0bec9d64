package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

const minPasswordLength = 8

// Service exposes account management operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func normalizeInput(input Input) Input {
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	return input
}

func validateInput(input Input) error {
	fields := map[string]string{}
	if input.Username == "" {
		fields["username"] = "required"
	} else if len(input.Username) > 255 {
		fields["username"] = "must be at most 255 characters"
	}
	if input.FirstName == "" {
		fields["firstName"] = "required"
	}
	if input.LastName == "" {
		fields["lastName"] = "required"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", shared.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) List(ctx context.Context, filters catshared.ListFilters) ([]User, shared.Page, error) {
	users, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Page{}, shared.Storage("users.list", err)
	}
	limit := shared.ClampPageSize(filters.PageSize)
	page := shared.Page{Total: total}
	if len(users) > limit {
		users = users[:limit]
		last := users[len(users)-1]
		page.NextCursor = shared.Cursor{Key: last.Username, ID: last.ID}.Encode()
	}
	return users, page, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, shared.NewValidationError("id", "required")
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, shared.Storage("users.get", err)
	}
	return user, nil
}

func (s *Service) Create(ctx context.Context, input Input, password string, actorID uuid.UUID) (User, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return User{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, input, hash, actorID)
	if err != nil {
		return User{}, shared.Storage("users.create", err)
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input Input, actorID uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, shared.NewValidationError("id", "required")
	}
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return User{}, err
	}
	user, err := s.repo.Update(ctx, id, input, actorID)
	if err != nil {
		return User{}, shared.Storage("users.update", err)
	}
	return user, nil
}

// ChangePassword rotates the account credential. The caller revokes any
// outstanding tokens separately.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, password string, actorID uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, shared.NewValidationError("id", "required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.UpdatePassword(ctx, id, hash, actorID)
	if err != nil {
		return User{}, shared.Storage("users.change_password", err)
	}
	return user, nil
}

func (s *Service) SoftDelete(ctx context.Context, id, actorID uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, shared.NewValidationError("id", "required")
	}
	user, err := s.repo.SoftDelete(ctx, id, actorID)
	if err != nil {
		return User{}, shared.Storage("users.delete", err)
	}
	return user, nil
}

func (s *Service) Restore(ctx context.Context, id, actorID uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, shared.NewValidationError("id", "required")
	}
	user, err := s.repo.Restore(ctx, id, actorID)
	if err != nil {
		return User{}, shared.Storage("users.restore", err)
	}
	return user, nil
}
