// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"calendar_backend/internal/api"
	"calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/feature/auth/transport/http/dto"
	"calendar_backend/internal/feature/auth/usecase"
)

const (
	// MsgEmailTaken は登録済みメールアドレスでの登録に返すメッセージです。
	MsgEmailTaken = "Email already registered"
	// MsgBadCredentials はログイン失敗時の共通メッセージです。メール不明とパスワード誤りを区別しません。
	MsgBadCredentials = "Incorrect email or password"
	// TokenTypeBearer はログイン応答のtoken_typeです。
	TokenTypeBearer = "bearer"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規ユーザーを登録し、作成したユーザーを返します。
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	// Login はユーザーを認証し、成功時にJWTトークンを返します。
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時はフィールド詳細付きで400
// - メール重複時は400
// - 成功時は作成したユーザーを201で返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationError(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Timezone:    req.Timezone,
	})
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		slog.Warn("register failed: email taken", "email", usecase.NormalizeEmail(req.Email), "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: MsgEmailTaken})
		return
	case errors.Is(err, usecase.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"password": err.Error()},
		})
		return
	case errors.Is(err, usecase.ErrInvalidTimezone):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"timezone": err.Error()},
		})
		return
	default:
		api.AbortInternal(c, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.NewUserRes(user))
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 認証失敗時は理由に関わらず同じメッセージで401
// - 成功時は {access_token, token_type: "bearer"} を200で返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationError(err))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "email", usecase.NormalizeEmail(req.Email), "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: MsgBadCredentials})
			return
		}
		api.AbortInternal(c, err)
		return
	}

	slog.Info("user login successful", "email", usecase.NormalizeEmail(req.Email), "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.TokenResponse{AccessToken: token, TokenType: TokenTypeBearer})
}
