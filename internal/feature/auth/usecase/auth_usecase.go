// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	// IANAタイムゾーンDBをバイナリに埋め込み、実行環境のzoneinfoに依存しない
	_ "time/tzdata"

	"calendar_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// List は全ユーザーをID順に返します。パスワードハッシュは含みません。
	List(ctx context.Context) ([]entity.User, error)

	// Delete はユーザーとそのユーザーが所有する全イベントを削除します。
	Delete(ctx context.Context, id uint) error
}

// PasswordHasher はパスワードのハッシュ化と検証を行います。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, stored string) (bool, error)
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID uint) (string, error)
}

// RegisterInput はユーザー登録の入力です。
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	// Timezone が空の場合は entity.DefaultTimezone が使われます。
	Timezone string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users        UserRepository
	hasher       PasswordHasher
	jwtGenerator JWTGenerator

	// dummyHash は存在しないユーザーのログイン時に検証するハッシュです。
	dummyHash string
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// 不明なメールでのログインも最初の1回から同じコストになるよう、ダミーハッシュはここで計算します。
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, jwtGenerator JWTGenerator) *authUsecase {
	return &authUsecase{
		users:        users,
		hasher:       hasher,
		jwtGenerator: jwtGenerator,
		dummyHash:    dummyPasswordHash(hasher),
	}
}

// NormalizeEmail は比較・保存用にメールアドレスを正規化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	return nil
}

func resolveTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return entity.DefaultTimezone, nil
	}
	if strings.EqualFold(tz, "local") {
		return "", ErrInvalidTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return tz, nil
}

// Register はハッシュ化されたパスワードで新規ユーザーを登録し、作成したユーザーを返します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	tz, err := resolveTimezone(in.Timezone)
	if err != nil {
		return nil, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Timezone:     tz,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// dummyPasswordHash はユーザーが存在しない場合の検証に使うハッシュを計算します。
func dummyPasswordHash(hasher PasswordHasher) string {
	h, err := hasher.Hash("calendar-dummy-password")
	if err != nil {
		slog.Error("failed to prepare dummy password hash", "error", err)
		return ""
	}
	return h
}

// Login はユーザーを認証し、成功時にJWTトークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもダミーハッシュで検証を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}
		if u.dummyHash != "" {
			_, _ = u.hasher.Verify(password, u.dummyHash)
		}
		return "", ErrInvalidCredentials
	}

	ok, err := u.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("stored password hash for user %d: %w", user.ID, err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := u.jwtGenerator.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// CurrentUser はIDでユーザーを取得します。
func (u *authUsecase) CurrentUser(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// ListUsers は登録済みユーザーの一覧を返します。
func (u *authUsecase) ListUsers(ctx context.Context) ([]entity.User, error) {
	return u.users.List(ctx)
}

// DeleteUser はユーザーと所有イベントを削除します。
func (u *authUsecase) DeleteUser(ctx context.Context, id uint) error {
	return u.users.Delete(ctx, id)
}
