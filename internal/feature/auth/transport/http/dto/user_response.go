package dto

import (
	"time"

	"calendar_backend/internal/feature/auth/domain/entity"
)

// UserRes はユーザーのJSON表現です。パスワード関連のフィールドは持ちません。
type UserRes struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUserRes はエンティティからレスポンスを組み立てます。
func NewUserRes(u *entity.User) UserRes {
	return UserRes{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Timezone:    u.Timezone,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewUserList は一覧用に変換します。空でも null ではなく [] を返します。
func NewUserList(users []entity.User) []UserRes {
	out := make([]UserRes, 0, len(users))
	for i := range users {
		out = append(out, NewUserRes(&users[i]))
	}
	return out
}
