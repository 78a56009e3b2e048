// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/feature/auth/usecase"
	"calendar_backend/internal/platform/db"
)

const (
	// DefaultTTL is used when a non-positive TTL is given.
	DefaultTTL = time.Minute
	// DefaultNamespace prefixes every key written by the user cache.
	DefaultNamespace = "users"
)

// cachedUser is the cached projection of a user. It never carries credentials.
type cachedUser struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CachingUserRepository decorates a UserRepository with a Redis cache for List.
// Single-user lookups always go to the inner repository.
type CachingUserRepository struct {
	usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to one minute. If namespace is empty, it uses "users".
// A nil client disables caching entirely.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingUserRepository{
		UserRepository: inner,
		rdb:            rdb,
		ttl:            ttl,
		namespace:      namespace,
	}
}

// List returns all users, reading through the cache.
func (c *CachingUserRepository) List(ctx context.Context) ([]entity.User, error) {
	if c.rdb == nil {
		return c.UserRepository.List(ctx)
	}

	key := c.listKey()

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cached []cachedUser
		if err := json.Unmarshal(b, &cached); err == nil {
			return fromCached(cached), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	users, err := c.UserRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(toCached(users)); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("failed to cache user list", "error", err)
		}
	}
	return users, nil
}

// Create stores the user and invalidates the cached list.
func (c *CachingUserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := c.UserRepository.Create(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Delete removes the user and invalidates the cached list.
func (c *CachingUserRepository) Delete(ctx context.Context, id uint) error {
	if err := c.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// invalidate drops the cached list now and, inside a transaction, once more after commit.
// A List between the write and the commit reads the old rows and may cache them again.
func (c *CachingUserRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	c.deleteList(ctx)
	db.AfterCommit(ctx, c.deleteList)
}

func (c *CachingUserRepository) deleteList(ctx context.Context) {
	// Best effort: the TTL bounds staleness if this fails
	if err := c.rdb.Del(ctx, c.listKey()).Err(); err != nil {
		slog.Warn("failed to invalidate user list cache", "error", err)
	}
}

func (c *CachingUserRepository) listKey() string {
	return c.namespace + ":list"
}

func toCached(users []entity.User) []cachedUser {
	out := make([]cachedUser, 0, len(users))
	for _, u := range users {
		out = append(out, cachedUser{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Timezone:    u.Timezone,
			CreatedAt:   u.CreatedAt,
			UpdatedAt:   u.UpdatedAt,
		})
	}
	return out
}

func fromCached(cached []cachedUser) []entity.User {
	out := make([]entity.User, 0, len(cached))
	for _, u := range cached {
		out = append(out, entity.User{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Timezone:    u.Timezone,
			CreatedAt:   u.CreatedAt,
			UpdatedAt:   u.UpdatedAt,
		})
	}
	return out
}
