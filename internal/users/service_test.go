package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

type memoryRepository struct {
	users map[uuid.UUID]User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: map[uuid.UUID]User{}}
}

func (r *memoryRepository) usernameTaken(username string, except uuid.UUID) bool {
	for id, u := range r.users {
		if id != except && u.DeletedAt == nil && u.Username == username {
			return true
		}
	}
	return false
}

func (r *memoryRepository) List(_ context.Context, filters catshared.ListFilters) ([]User, int, error) {
	rows := []User{}
	for _, u := range r.users {
		if u.DeletedAt != nil && !filters.IncludeDeleted {
			continue
		}
		rows = append(rows, u)
	}
	return rows, len(rows), nil
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range r.users {
		if u.DeletedAt == nil && u.Username == username {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (r *memoryRepository) Create(_ context.Context, input Input, passwordHash string, _ uuid.UUID) (User, error) {
	if r.usernameTaken(input.Username, uuid.Nil) {
		return User{}, &shared.ConflictError{Detail: "username already in use"}
	}
	now := time.Now()
	user := User{
		ID:           uuid.New(),
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: passwordHash,
		Admin:        input.Admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepository) Update(_ context.Context, id uuid.UUID, input Input, _ uuid.UUID) (User, error) {
	current, ok := r.users[id]
	if !ok || current.DeletedAt != nil {
		return User{}, shared.ErrNotFound
	}
	if r.usernameTaken(input.Username, id) {
		return User{}, &shared.ConflictError{Detail: "username already in use"}
	}
	current.Username = input.Username
	current.FirstName = input.FirstName
	current.LastName = input.LastName
	current.Admin = input.Admin
	current.UpdatedAt = time.Now()
	r.users[id] = current
	return current, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string, _ uuid.UUID) (User, error) {
	current, ok := r.users[id]
	if !ok || current.DeletedAt != nil {
		return User{}, shared.ErrNotFound
	}
	current.PasswordHash = passwordHash
	current.UpdatedAt = time.Now()
	r.users[id] = current
	return current, nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id, _ uuid.UUID) (User, error) {
	current, ok := r.users[id]
	if !ok || current.DeletedAt != nil {
		return User{}, shared.ErrNotFound
	}
	now := time.Now()
	current.DeletedAt = &now
	r.users[id] = current
	return current, nil
}

func (r *memoryRepository) Restore(_ context.Context, id, _ uuid.UUID) (User, error) {
	current, ok := r.users[id]
	if !ok || current.DeletedAt == nil {
		return User{}, shared.ErrNotFound
	}
	current.DeletedAt = nil
	r.users[id] = current
	return current, nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Input{
		Username:  "  clerk  ",
		FirstName: "Jo",
		LastName:  "Reyes",
	}, "correct horse", uuid.New())
	require.NoError(t, err)
	require.Equal(t, "clerk", created.Username)

	stored := repo.users[created.ID]
	require.NotEqual(t, "correct horse", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(newMemoryRepository())

	_, err := svc.Create(context.Background(), Input{
		Username:  "clerk",
		FirstName: "Jo",
		LastName:  "Reyes",
	}, "short", uuid.New())
	require.ErrorIs(t, err, shared.ErrValidation)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "password")
}

func TestCreateDuplicateUsernameConflicts(t *testing.T) {
	svc := NewService(newMemoryRepository())
	input := Input{Username: "clerk", FirstName: "Jo", LastName: "Reyes"}

	_, err := svc.Create(context.Background(), input, "correct horse", uuid.New())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input, "correct horse", uuid.New())
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestChangePasswordRotatesHash(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	actor := uuid.New()

	created, err := svc.Create(context.Background(), Input{
		Username: "clerk", FirstName: "Jo", LastName: "Reyes",
	}, "correct horse", actor)
	require.NoError(t, err)
	before := repo.users[created.ID].PasswordHash

	_, err = svc.ChangePassword(context.Background(), created.ID, "battery staple", actor)
	require.NoError(t, err)
	after := repo.users[created.ID].PasswordHash
	require.NotEqual(t, before, after)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(after), []byte("battery staple")))

	_, err = svc.ChangePassword(context.Background(), created.ID, "nope", actor)
	require.ErrorIs(t, err, shared.ErrValidation)
}
