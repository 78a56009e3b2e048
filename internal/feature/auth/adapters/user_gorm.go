// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/feature/auth/usecase"
	"calendar_backend/internal/platform/db"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

// publicColumns はパスワードハッシュを除いた一覧用のカラムです。
var publicColumns = []string{"id", "email", "display_name", "timezone", "created_at", "updated_at"}

// userGorm はUserRepositoryインターフェースのGORM実装です。
// リクエストにトランザクションがあればそれを使います。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(gdb *gorm.DB) *userGorm {
	return &userGorm{db: gdb}
}

func (r *userGorm) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

// isUniqueViolation はエラーがメールアドレスの重複によるものか判定します。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if err := r.conn(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// List は全ユーザーをID順に返します。
func (r *userGorm) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.conn(ctx).Select(publicColumns).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete はユーザーを削除します。
// 外部キーのON DELETE CASCADEに頼らず、同一トランザクション内でイベント→ユーザーの順に明示的に削除します。
func (r *userGorm) Delete(ctx context.Context, id uint) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := r.conn(ctx)
		if err := tx.Exec("DELETE FROM events WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete events of user %d: %w", id, err)
		}
		res := tx.Delete(&entity.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return usecase.ErrUserNotFound
		}
		return nil
	})
}
