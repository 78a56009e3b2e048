// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "calendar_backend/internal/feature/auth/adapters"
	"calendar_backend/internal/feature/auth/usecase"
	"calendar_backend/internal/platform/cache"
)

// NewUserRepository creates a UserRepository implementation.
// If Redis is available, the user list is served through a cache.
// Otherwise, every call goes to the database.
func NewUserRepository(gdb *gorm.DB, rdb *redis.Client, ttl time.Duration) usecase.UserRepository {
	repo := authadapters.NewUserGorm(gdb)
	if rdb != nil {
		return cache.NewCachingUserRepository(rdb, ttl, repo, cache.DefaultNamespace)
	}
	return repo
}
