package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/platform/password"
)

// mockUserRepository is a mock implementation of the UserRepository interface.
type mockUserRepository struct {
	CreateFunc      func(ctx context.Context, user *entity.User) error
	FindByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
	FindByIDFunc    func(ctx context.Context, id uint) (*entity.User, error)
	ListFunc        func(ctx context.Context) ([]entity.User, error)
	DeleteFunc      func(ctx context.Context, id uint) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]entity.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockJWTGenerator is a mock implementation of the JWTGenerator interface.
type mockJWTGenerator struct {
	GenerateTokenFunc func(userID uint) (string, error)
}

func (m *mockJWTGenerator) GenerateToken(userID uint) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID)
	}
	return "mock-jwt-token", nil
}

// countingHasher wraps a real hasher and counts Verify calls.
type countingHasher struct {
	PasswordHasher
	verifyCalls int
	hashCalls   int
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.hashCalls++
	return h.PasswordHasher.Hash(plain)
}

func (h *countingHasher) Verify(plain, stored string) (bool, error) {
	h.verifyCalls++
	return h.PasswordHasher.Verify(plain, stored)
}

// testHasher は高速化のため反復回数を下げたハッシャーです。
func testHasher() PasswordHasher {
	return password.NewHasher(1000)
}

func TestAuthUsecase_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		var stored *entity.User
		repo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				stored = user
				user.ID = 10
				return nil
			},
		}
		hasher := testHasher()
		uc := NewAuthUsecase(repo, hasher, &mockJWTGenerator{})

		user, err := uc.Register(context.Background(), RegisterInput{
			Email:       "  Alice@Example.COM ",
			Password:    "password123",
			DisplayName: "Alice",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(10), user.ID)
		assert.Equal(t, "alice@example.com", stored.Email)
		assert.Equal(t, entity.DefaultTimezone, stored.Timezone)
		assert.True(t, strings.HasPrefix(stored.PasswordHash, "pbkdf2_sha256$"), "password must be hashed")
		assert.NotContains(t, stored.PasswordHash, "password123")

		ok, err := hasher.Verify("password123", stored.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("explicit timezone kept", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, testHasher(), &mockJWTGenerator{})

		user, err := uc.Register(context.Background(), RegisterInput{
			Email: "bob@example.com", Password: "password123", DisplayName: "Bob", Timezone: "Asia/Tokyo",
		})

		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", user.Timezone)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name    string
			in      RegisterInput
			wantErr error
		}{
			{"short password", RegisterInput{Email: "a@b.c", Password: "short", DisplayName: "A"}, ErrWeakPassword},
			{"unknown timezone", RegisterInput{Email: "a@b.c", Password: "password123", DisplayName: "A", Timezone: "Mars/Olympus"}, ErrInvalidTimezone},
			{"local timezone", RegisterInput{Email: "a@b.c", Password: "password123", DisplayName: "A", Timezone: "Local"}, ErrInvalidTimezone},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				called := false
				repo := &mockUserRepository{CreateFunc: func(ctx context.Context, user *entity.User) error {
					called = true
					return nil
				}}
				uc := NewAuthUsecase(repo, testHasher(), &mockJWTGenerator{})

				_, err := uc.Register(context.Background(), tt.in)

				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, called, "repository must not be called on invalid input")
			})
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := &mockUserRepository{CreateFunc: func(ctx context.Context, user *entity.User) error {
			return ErrEmailAlreadyExists
		}}
		uc := NewAuthUsecase(repo, testHasher(), &mockJWTGenerator{})

		_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "password123", DisplayName: "A"})

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	hasher := testHasher()
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	testUser := &entity.User{ID: 1, Email: "test@example.com", PasswordHash: hash}

	findByEmail := func(ctx context.Context, email string) (*entity.User, error) {
		if email == testUser.Email {
			return testUser, nil
		}
		return nil, ErrUserNotFound
	}

	t.Run("successful login", func(t *testing.T) {
		repo := &mockUserRepository{FindByEmailFunc: findByEmail}
		jwt := &mockJWTGenerator{GenerateTokenFunc: func(userID uint) (string, error) {
			assert.Equal(t, testUser.ID, userID)
			return "signed-token", nil
		}}
		uc := NewAuthUsecase(repo, hasher, jwt)

		token, err := uc.Login(context.Background(), " TEST@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "signed-token", token)
	})

	// 不明なメールと誤ったパスワードは同じエラーになり、どちらも検証処理を実行する
	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		counting := &countingHasher{PasswordHasher: hasher}
		uc := NewAuthUsecase(&mockUserRepository{FindByEmailFunc: findByEmail}, counting, &mockJWTGenerator{})

		_, errUnknown := uc.Login(context.Background(), "nobody@example.com", "password123")
		assert.Equal(t, 1, counting.verifyCalls, "dummy verification must run for unknown email")

		_, errWrong := uc.Login(context.Background(), "test@example.com", "wrong-password")
		assert.Equal(t, 2, counting.verifyCalls)

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	// ダミーハッシュは生成時に用意され、ログイン失敗時はVerifyのみが走る
	t.Run("dummy hash prepared at construction", func(t *testing.T) {
		counting := &countingHasher{PasswordHasher: hasher}
		uc := NewAuthUsecase(&mockUserRepository{FindByEmailFunc: findByEmail}, counting, &mockJWTGenerator{})
		require.Equal(t, 1, counting.hashCalls)

		for i := 0; i < 3; i++ {
			_, err := uc.Login(context.Background(), "nobody@example.com", "x")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, 1, counting.hashCalls, "login %d must not hash", i+1)
		}
		assert.Equal(t, 3, counting.verifyCalls)
	})

	t.Run("repository failure is not reported as bad credentials", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		repo := &mockUserRepository{FindByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, dbErr
		}}
		uc := NewAuthUsecase(repo, hasher, &mockJWTGenerator{})

		_, err := uc.Login(context.Background(), "test@example.com", "password123")

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("corrupted stored hash", func(t *testing.T) {
		broken := &entity.User{ID: 2, Email: "broken@example.com", PasswordHash: "not-a-hash"}
		repo := &mockUserRepository{FindByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return broken, nil
		}}
		uc := NewAuthUsecase(repo, hasher, &mockJWTGenerator{})

		_, err := uc.Login(context.Background(), "broken@example.com", "password123")

		assert.ErrorIs(t, err, password.ErrInvalidHashFormat)
	})

	t.Run("JWT generation failure", func(t *testing.T) {
		genErr := errors.New("signing failed")
		repo := &mockUserRepository{FindByEmailFunc: findByEmail}
		jwt := &mockJWTGenerator{GenerateTokenFunc: func(userID uint) (string, error) {
			return "", genErr
		}}
		uc := NewAuthUsecase(repo, hasher, jwt)

		_, err := uc.Login(context.Background(), "test@example.com", "password123")

		assert.ErrorIs(t, err, genErr)
	})
}

func TestAuthUsecase_Delegation(t *testing.T) {
	var deleted uint
	repo := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
			return &entity.User{ID: id}, nil
		},
		ListFunc: func(ctx context.Context) ([]entity.User, error) {
			return []entity.User{{ID: 1}, {ID: 2}}, nil
		},
		DeleteFunc: func(ctx context.Context, id uint) error {
			deleted = id
			return nil
		},
	}
	uc := NewAuthUsecase(repo, testHasher(), &mockJWTGenerator{})
	ctx := context.Background()

	user, err := uc.CurrentUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)

	users, err := uc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, uc.DeleteUser(ctx, 3))
	assert.Equal(t, uint(3), deleted)
}
