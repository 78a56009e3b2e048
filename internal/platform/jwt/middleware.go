package jwtmw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"calendar_backend/internal/api"
	"calendar_backend/internal/feature/auth/domain"
	"calendar_backend/internal/feature/auth/domain/entity"
)

const (
	// ContextUserID は認証済みユーザーIDを格納するgin.Contextのキーです。
	ContextUserID = "userID"
	// ContextUser は認証済みユーザー（*entity.User）を格納するgin.Contextのキーです。
	ContextUser = "user"
)

// TokenParser はトークン検証のインターフェースです。
type TokenParser interface {
	ParseToken(tokenStr string) (*Claims, error)
}

// UserLookup はトークンのuser_idを実在するユーザーに解決します。
// ユーザーがいない場合は domain.ErrUserNotFound を返す必要があります。
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// AuthRequired はJWTトークンを検証し、認証済みユーザーのみアクセスを許可するGinミドルウェアを返します。
//
// ヘッダー不正・トークン不正・期限切れ・ユーザー不在はいずれも同じ401を返し、
// 理由はログにのみ区別して残します。
// ユーザー検索がストア障害で失敗した場合は401ではなく500を返します。
func AuthRequired(parser TokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorizationヘッダーからトークンを取り出す
		tokenStr, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, "missing bearer token", err)
			return
		}

		// 2. 署名と有効期限を検証
		claims, err := parser.ParseToken(tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abortUnauthorized(c, "token expired", err)
			default:
				abortUnauthorized(c, "invalid token", err)
			}
			return
		}

		// 3. トークン発行後に削除されたユーザーを弾く
		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				abortUnauthorized(c, "user not found", err)
				return
			}
			api.AbortInternal(c, fmt.Errorf("look up user %d: %w", claims.UserID, err))
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// UserID はAuthRequiredが設定したユーザーIDを取り出します。
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// CurrentUser はAuthRequiredが設定したユーザーを取り出します。
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}

// UnauthorizedMessage はクライアントに返す401のメッセージです。失敗理由は公開しません。
const UnauthorizedMessage = "not authenticated"

func abortUnauthorized(c *gin.Context, reason string, err error) {
	slog.Warn("authentication failed", "reason", reason, "error", err, "remote_addr", c.ClientIP())
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: UnauthorizedMessage})
}
