package router

import (
	"github.com/gin-gonic/gin"

	webhandler "calendar_backend/internal/feature/webapp/transport/handler"
	"calendar_backend/internal/platform/http/handler"
)

// NewWebappRouter はフロントエンドのルーティングを構成します。
// gate はCookieのトークンを検証するミドルウェアです。
func NewWebappRouter(pages *webhandler.Pages, gate gin.HandlerFunc) *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(webhandler.Templates())

	r.GET("/health", handler.Health)

	// 認証不要
	r.GET("/", pages.Root)
	r.GET("/login", pages.LoginForm)
	r.POST("/login", pages.Login)
	r.GET("/logout", pages.Logout)

	// Cookie必須のルート
	auth := r.Group("/")
	auth.Use(gate)
	{
		auth.GET("/calendar", pages.Calendar)
		auth.POST("/events", pages.CreateEvent)
		auth.POST("/events/:id", pages.UpdateEvent)
		auth.POST("/events/:id/delete", pages.DeleteEvent)
		auth.GET("/users", pages.Users)
		auth.POST("/users", pages.CreateUser)
	}

	return r
}
