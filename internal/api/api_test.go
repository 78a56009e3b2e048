package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type bindTarget struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

func bindBody(t *testing.T, body string) error {
	t.Helper()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var target bindTarget
	return c.ShouldBindJSON(&target)
}

// TestValidationError_FieldDetail はフィールド別の詳細がJSON名をキーに返されることを検証します。
func TestValidationError_FieldDetail(t *testing.T) {
	err := bindBody(t, `{"email":"not-an-email","password":"short"}`)
	require.Error(t, err)

	resp := ValidationError(err)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "password")
	assert.Contains(t, resp.Fields, "display_name")
	assert.Equal(t, "must be at least 8 characters", resp.Fields["password"])
	assert.Equal(t, "field required", resp.Fields["display_name"])
}

func TestValidationError_MalformedJSON(t *testing.T) {
	err := bindBody(t, `{"email":`)
	require.Error(t, err)

	resp := ValidationError(err)
	assert.Equal(t, "invalid request body", resp.Error)
	assert.Empty(t, resp.Fields)
}

// TestAbortInternal_DetailOnlyInDebug は内部エラーの詳細がデバッグモードでのみ返されることを検証します。
func TestAbortInternal_DetailOnlyInDebug(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		wantDetail string
	}{
		{"release mode hides detail", gin.ReleaseMode, ""},
		{"test mode hides detail", gin.TestMode, ""},
		{"debug mode shows detail", gin.DebugMode, "db exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(tt.mode)
			defer gin.SetMode(gin.TestMode)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			AbortInternal(c, errors.New("db exploded"))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.True(t, c.IsAborted())
			assert.Len(t, c.Errors, 1)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, InternalErrorMessage, body["error"])
			if tt.wantDetail == "" {
				assert.NotContains(t, body, "detail")
			} else {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}
}
