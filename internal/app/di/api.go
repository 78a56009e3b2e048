package di

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"calendar_backend/internal/app/config"
	"calendar_backend/internal/app/router"
	authhandler "calendar_backend/internal/feature/auth/transport/handler"
	authusecase "calendar_backend/internal/feature/auth/usecase"
	eventsadapters "calendar_backend/internal/feature/events/adapters"
	eventshandler "calendar_backend/internal/feature/events/transport/handler"
	eventsusecase "calendar_backend/internal/feature/events/usecase"
	jwtmw "calendar_backend/internal/platform/jwt"
	"calendar_backend/internal/platform/password"
)

// NewAPI wires repositories, usecases and handlers into the API router.
// rdb may be nil, in which case the user list is not cached.
func NewAPI(cfg config.Config, gdb *gorm.DB, rdb *redis.Client) *gin.Engine {
	// Repository
	userRepo := NewUserRepository(gdb, rdb, cfg.UsersCacheTTL)
	eventRepo := eventsadapters.NewEventGorm(gdb)

	// Usecase
	hasher := password.NewHasher(cfg.Password.Iterations)
	authUC := authusecase.NewAuthUsecase(userRepo, hasher, jwtmw.NewGenerator(cfg.JWT.Secret, cfg.JWT.TTL))
	eventsUC := eventsusecase.NewEventUsecase(eventRepo)

	// Handler
	handlers := router.Handlers{
		Auth:   authhandler.NewAuthHandler(authUC),
		Users:  authhandler.NewUserHandler(authUC),
		Events: eventshandler.NewEventHandler(eventsUC),
	}

	authMW := jwtmw.AuthRequired(jwtmw.NewParser(cfg.JWT.Secret), userRepo)
	return router.NewRouter(gdb, authMW, handlers)
}
