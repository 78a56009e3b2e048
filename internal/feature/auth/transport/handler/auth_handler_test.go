package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/feature/auth/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
type mockAuthUsecase struct {
	RegisterFunc func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	LoginFunc    func(ctx context.Context, email, password string) (string, error)
}

func (m *mockAuthUsecase) Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return nil, errors.New("register not mocked")
}

func (m *mockAuthUsecase) Login(ctx context.Context, email, password string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "", usecase.ErrInvalidCredentials
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestAuthHandler_Register(t *testing.T) {
	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    gin.H
		registerFunc   func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
		expectedStatus int
		check          func(t *testing.T, body map[string]any)
	}{
		{
			name:        "success: user registration",
			requestBody: gin.H{"email": "test@example.com", "password": "password123", "display_name": "Tester"},
			registerFunc: func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
				return &entity.User{
					ID: 1, Email: in.Email, DisplayName: in.DisplayName, Timezone: entity.DefaultTimezone,
					PasswordHash: "pbkdf2_sha256$1$x$y", CreatedAt: created, UpdatedAt: created,
				}, nil
			},
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(1), body["id"])
				assert.Equal(t, "test@example.com", body["email"])
				assert.Equal(t, "Tester", body["display_name"])
				assert.Equal(t, "Europe/Paris", body["timezone"])
				assert.NotContains(t, body, "password")
				assert.NotContains(t, body, "password_hash")
				assert.NotContains(t, body, "PasswordHash")
			},
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"email": "invalid-email", "password": "password123", "display_name": "X"},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				fields, ok := body["fields"].(map[string]any)
				require.True(t, ok)
				assert.Contains(t, fields, "email")
			},
		},
		{
			name:           "failure: short password",
			requestBody:    gin.H{"email": "test@example.com", "password": "short", "display_name": "X"},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				fields := body["fields"].(map[string]any)
				assert.Contains(t, fields, "password")
			},
		},
		{
			name:           "failure: missing display name",
			requestBody:    gin.H{"email": "test@example.com", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				fields := body["fields"].(map[string]any)
				assert.Contains(t, fields, "display_name")
			},
		},
		{
			name:           "failure: unknown timezone",
			requestBody:    gin.H{"email": "test@example.com", "password": "password123", "display_name": "X", "timezone": "Nowhere/City"},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				fields := body["fields"].(map[string]any)
				assert.Contains(t, fields, "timezone")
			},
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "existing@example.com", "password": "password123", "display_name": "X"},
			registerFunc: func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, MsgEmailTaken, body["error"])
			},
		},
		{
			name:        "failure: unexpected error",
			requestBody: gin.H{"email": "test@example.com", "password": "password123", "display_name": "X"},
			registerFunc: func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
				return nil, errors.New("disk full")
			},
			expectedStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "internal server error", body["error"])
				assert.NotContains(t, body, "detail")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockUC := &mockAuthUsecase{RegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
				called = true
				return tt.registerFunc(ctx, in)
			}}
			r := gin.New()
			r.POST("/auth/register", NewAuthHandler(mockUC).Register)

			w := postJSON(r, "/auth/register", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.registerFunc != nil, called)
			tt.check(t, decodeBody(t, w))
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		loginFunc      func(ctx context.Context, email, password string) (string, error)
		expectedStatus int
		expectedBody   gin.H
	}{
		{
			name:        "success: login",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "dummy-jwt-token", nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   gin.H{"access_token": "dummy-jwt-token", "token_type": "bearer"},
		},
		{
			name:        "failure: wrong password",
			requestBody: gin.H{"email": "test@example.com", "password": "wrong"},
			loginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "", usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   gin.H{"error": MsgBadCredentials},
		},
		{
			name:        "failure: unknown email",
			requestBody: gin.H{"email": "nobody@example.com", "password": "password123"},
			loginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "", usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   gin.H{"error": MsgBadCredentials},
		},
		{
			name:        "failure: store error",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "", errors.New("connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   gin.H{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/auth/login", NewAuthHandler(&mockAuthUsecase{LoginFunc: tt.loginFunc}).Login)

			w := postJSON(r, "/auth/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body gin.H
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(&mockAuthUsecase{}).Login)

	w := postJSON(r, "/auth/login", gin.H{"email": "test@example.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["fields"], "password")
}
