package jwtmw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar_backend/internal/api"
	"calendar_backend/internal/feature/auth/domain"
	"calendar_backend/internal/feature/auth/domain/entity"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockUserLookup はUserLookupのモック実装です。
type mockUserLookup struct {
	FindByIDFunc func(ctx context.Context, id uint) (*entity.User, error)
}

func (m *mockUserLookup) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, Email: "user@example.com"}, nil
}

func runMiddleware(t *testing.T, header string, users UserLookup, secret string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}

	AuthRequired(NewParser(secret), users)(c)
	return w, c
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder, c *gin.Context) {
	t.Helper()

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted(), "expected request to be aborted")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, UnauthorizedMessage, body["error"])
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合やプレフィックスが不正な場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	lookupCalled := false
	users := &mockUserLookup{FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
		lookupCalled = true
		return nil, nil
	}}

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer token123", "Bearertoken123", "Bearer "} {
		t.Run(header, func(t *testing.T) {
			w, c := runMiddleware(t, header, users, "test-secret")
			assertUnauthorized(t, w, c)
		})
	}
	assert.False(t, lookupCalled, "user lookup must not run without a token")
}

// TestAuthRequired_InvalidToken は不正なトークン（改ざん・期限切れ等）で401が返されることを検証します。
func TestAuthRequired_InvalidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-invalid"

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", createTokenWithSecret("wrong-secret", 1, time.Hour)},
		{"expired token", createTokenWithSecret(testSecret, 1, -time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := runMiddleware(t, "Bearer "+tt.token, &mockUserLookup{}, testSecret)
			assertUnauthorized(t, w, c)
		})
	}
}

// TestAuthRequired_DeletedUser はトークンが有効でもユーザーが存在しなければ401になることを検証します。
func TestAuthRequired_DeletedUser(t *testing.T) {
	const testSecret = "test-secret-deleted"
	users := &mockUserLookup{FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
		return nil, fmt.Errorf("find user by id: %w", domain.ErrUserNotFound)
	}}

	w, c := runMiddleware(t, "Bearer "+createTokenWithSecret(testSecret, 5, time.Hour), users, testSecret)
	assertUnauthorized(t, w, c)

	_, ok := UserID(c)
	assert.False(t, ok)
}

// TestAuthRequired_StoreFailure はユーザー検索の障害が401ではなく500になることを検証します。
func TestAuthRequired_StoreFailure(t *testing.T) {
	const testSecret = "test-secret-store-failure"
	users := &mockUserLookup{FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
		return nil, errors.New("find user by id: connection refused")
	}}

	w, c := runMiddleware(t, "Bearer "+createTokenWithSecret(testSecret, 5, time.Hour), users, testSecret)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, api.InternalErrorMessage, body["error"])
	assert.NotContains(t, w.Body.String(), "connection refused")

	_, ok := UserID(c)
	assert.False(t, ok)
}

// TestAuthRequired_ValidToken は有効なトークンでリクエストが通過し、コンテキストにユーザーが設定されることを検証します。
func TestAuthRequired_ValidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-valid"

	for _, uid := range []uint{1, 42, 999} {
		token := createTokenWithSecret(testSecret, uid, time.Hour)

		var lookedUp uint
		users := &mockUserLookup{FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
			lookedUp = id
			return &entity.User{ID: id, Email: "valid@example.com"}, nil
		}}

		_, c := runMiddleware(t, "Bearer "+token, users, testSecret)
		require.False(t, c.IsAborted())
		assert.Equal(t, uid, lookedUp)

		got, ok := UserID(c)
		require.True(t, ok)
		assert.Equal(t, uid, got)

		user, ok := CurrentUser(c)
		require.True(t, ok)
		assert.Equal(t, "valid@example.com", user.Email)
	}
}

func TestUserID_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := UserID(c)
	assert.False(t, ok)
	_, ok = CurrentUser(c)
	assert.False(t, ok)
}
