package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/fcgregorio/jbj-trading/internal/shared"
	"github.com/fcgregorio/jbj-trading/internal/users"
)

// UserPort is the slice of the users module the service needs.
type UserPort interface {
	GetByUsername(ctx context.Context, username string) (users.User, error)
}

// Service wraps authentication business rules. Resolved actors are
// cached in Redis for the configured TTL; revocation busts the cache so
// a deleted token stops working within one request.
type Service struct {
	repo     Repository
	users    UserPort
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, userPort UserPort, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, users: userPort, cache: cache, cacheTTL: cacheTTL}
}

func cacheKey(tokenID uuid.UUID) string {
	return fmt.Sprintf("auth:token:%s", tokenID)
}

// Issue validates credentials and mints a fresh token.
func (s *Service) Issue(ctx context.Context, username, password string) (Token, users.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Token{}, users.User{}, shared.ErrInvalidCredentials
		}
		return Token{}, users.User{}, shared.Storage("auth.issue", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, users.User{}, shared.ErrInvalidCredentials
	}
	now := time.Now().UTC()
	token := Token{ID: uuid.New(), UserID: user.ID, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Insert(ctx, token); err != nil {
		return Token{}, users.User{}, shared.Storage("auth.issue", err)
	}
	return token, user, nil
}

// Resolve maps a bearer token to the acting user.
func (s *Service) Resolve(ctx context.Context, tokenID uuid.UUID) (shared.Actor, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey(tokenID)).Bytes(); err == nil {
			var actor shared.Actor
			if err := json.Unmarshal(raw, &actor); err == nil {
				return actor, nil
			}
		}
	}
	user, err := s.repo.ResolveUser(ctx, tokenID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Actor{}, shared.ErrInvalidCredentials
		}
		return shared.Actor{}, shared.Storage("auth.resolve", err)
	}
	actor := shared.Actor{ID: user.ID, Username: user.Username, Admin: user.Admin}
	if s.cache != nil {
		if raw, err := json.Marshal(actor); err == nil {
			s.cache.Set(ctx, cacheKey(tokenID), raw, s.cacheTTL)
		}
	}
	return actor, nil
}

// Revoke deletes a token and evicts it from the cache.
func (s *Service) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.repo.Delete(ctx, tokenID); err != nil {
		return shared.Storage("auth.revoke", err)
	}
	if s.cache != nil {
		s.cache.Del(ctx, cacheKey(tokenID))
	}
	return nil
}
