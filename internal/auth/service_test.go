package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fcgregorio/jbj-trading/internal/shared"
	"github.com/fcgregorio/jbj-trading/internal/users"
)

type memoryAuthRepo struct {
	tokens   map[uuid.UUID]uuid.UUID
	accounts map[uuid.UUID]users.User
	resolves int
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{tokens: map[uuid.UUID]uuid.UUID{}, accounts: map[uuid.UUID]users.User{}}
}

func (r *memoryAuthRepo) addUser(username, password string, admin bool) users.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := users.User{ID: uuid.New(), Username: username, PasswordHash: string(hash), Admin: admin}
	r.accounts[user.ID] = user
	return user
}

func (r *memoryAuthRepo) Insert(ctx context.Context, token Token) error {
	r.tokens[token.ID] = token.UserID
	return nil
}

func (r *memoryAuthRepo) ResolveUser(ctx context.Context, tokenID uuid.UUID) (users.User, error) {
	r.resolves++
	userID, ok := r.tokens[tokenID]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return r.accounts[userID], nil
}

func (r *memoryAuthRepo) Delete(ctx context.Context, tokenID uuid.UUID) error {
	if _, ok := r.tokens[tokenID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.tokens, tokenID)
	return nil
}

func (r *memoryAuthRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	for _, user := range r.accounts {
		if user.Username == username {
			return user, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func newTestService(t *testing.T) (*Service, *memoryAuthRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryAuthRepo()
	return NewService(repo, repo, client, time.Minute), repo
}

func TestIssueAndResolve(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	user := repo.addUser("mgarcia", "correct horse", true)

	token, issued, err := svc.Issue(ctx, "mgarcia", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, issued.ID)

	actor, err := svc.Resolve(ctx, token.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, actor.ID)
	require.True(t, actor.Admin)
}

func TestIssueRejectsBadCredentials(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.addUser("mgarcia", "correct horse", false)

	_, _, err := svc.Issue(ctx, "mgarcia", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Issue(ctx, "nobody", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveUsesCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.addUser("mgarcia", "correct horse", false)

	token, _, err := svc.Issue(ctx, "mgarcia", "correct horse")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, token.ID)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, token.ID)
	require.NoError(t, err)
	require.Equal(t, 1, repo.resolves)
}

func TestRevokeBustsCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.addUser("mgarcia", "correct horse", false)

	token, _, err := svc.Issue(ctx, "mgarcia", "correct horse")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, token.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token.ID))

	_, err = svc.Resolve(ctx, token.ID)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
