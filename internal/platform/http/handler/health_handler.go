// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"calendar_backend/internal/api"
	"calendar_backend/internal/platform/db"
)

// dbPingTimeout はDBヘルスチェック1回あたりの上限です。
const dbPingTimeout = 2 * time.Second

// Health はプロセスの生存確認用 /health エンドポイントを処理します。
// DBには触れず、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// DBHealth は /health/db を処理するハンドラーを返します。
// DBに到達できれば200、できなければ503を返します。
func DBHealth(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbPingTimeout)
		defer cancel()

		if err := db.Ping(ctx, gdb); err != nil {
			slog.Warn("database health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "error", Database: "down"})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok", Database: "up"})
	}
}
