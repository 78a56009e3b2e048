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
	jwtmw "calendar_backend/internal/platform/jwt"
)

// UserUsecase はユーザー一覧と削除のユースケースです。
type UserUsecase interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// UserHandler は /users 配下のリクエストを処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// List は GET /users を処理します。
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		api.AbortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserList(users))
}

// Me は GET /users/me を処理します。AuthRequired の後段で使います。
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: jwtmw.UnauthorizedMessage})
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// DeleteMe は DELETE /users/me を処理します。呼び出し元のイベントも削除されます。
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: jwtmw.UnauthorizedMessage})
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: jwtmw.UnauthorizedMessage})
			return
		}
		api.AbortInternal(c, err)
		return
	}

	slog.Info("user deleted", "user_id", userID, "remote_addr", c.ClientIP())
	c.Status(http.StatusNoContent)
}
