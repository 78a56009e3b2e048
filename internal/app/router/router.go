package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authhandler "calendar_backend/internal/feature/auth/transport/handler"
	eventshandler "calendar_backend/internal/feature/events/transport/handler"
	"calendar_backend/internal/platform/db"
	"calendar_backend/internal/platform/http/handler"
)

// Handlers はルーターに登録するフィーチャーごとのハンドラーです。
type Handlers struct {
	Auth   *authhandler.AuthHandler
	Users  *authhandler.UserHandler
	Events *eventshandler.EventHandler
}

// NewRouter はAPIのルーティングを構成します。
// authRequired は認証必須ルートの前段に置くミドルウェアです。
func NewRouter(gdb *gorm.DB, authRequired gin.HandlerFunc, h Handlers) *gin.Engine {
	r := gin.Default()

	// 導通確認用（トランザクション外）
	r.GET("/health", handler.Health)
	r.HEAD("/health", handler.Health)
	r.GET("/health/db", handler.DBHealth(gdb))

	// 以降のルートは1リクエスト1トランザクション
	api := r.Group("/")
	api.Use(db.Transactional(gdb))
	{
		// 認証不要
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/users", h.Users.List)

		// 認証必須のルート
		auth := api.Group("/")
		auth.Use(authRequired)
		{
			auth.GET("/users/me", h.Users.Me)
			auth.DELETE("/users/me", h.Users.DeleteMe)

			auth.GET("/events", h.Events.List)
			auth.GET("/events.ics", h.Events.Export)
			auth.POST("/events", h.Events.Create)
			auth.GET("/events/:id", h.Events.Get)
			auth.PUT("/events/:id", h.Events.Update)
			auth.DELETE("/events/:id", h.Events.Delete)
		}
	}

	return r
}
