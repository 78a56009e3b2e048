package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformhttp "calendar_backend/internal/platform/http"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", platformhttp.NewHTTPClient(5*time.Second))
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer"}`)
	})

	token, err := c.Login(context.Background(), "a@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, map[string]string{"email": "a@example.com", "password": "pw"}, gotBody)
}

func TestClient_Login_EmptyToken(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.Login(context.Background(), "a@example.com", "pw")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestClient_ListEvents_SendsWindowAndBearer(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-03-02T00:00:00Z", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-03-09T00:00:00Z", r.URL.Query().Get("to"))
		_, _ = io.WriteString(w, `[{"id":1,"user_id":2,"title":"Standup","start_datetime":"2026-03-02T09:00:00Z","end_datetime":"2026-03-02T09:15:00Z"}]`)
	})

	events, err := c.ListEvents(context.Background(), "tok", from, to)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, uint(2), events[0].UserID)
}

func TestClient_DeleteEvent_NoContent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/events/5", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteEvent(context.Background(), "tok", 5))
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		status         int
		body           string
		expectedDetail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"not authenticated"}`, "Not authenticated. Please log in again."},
		{"forbidden", http.StatusForbidden, ``, "Access forbidden."},
		{"not found", http.StatusNotFound, `{"error":"event not found"}`, "Resource not found."},
		{"validation", http.StatusBadRequest, `{"error":"validation failed","fields":{"title":"field required","end_datetime":"x"}}`, "validation failed; end_datetime: x; title: field required"},
		{"plain text", http.StatusBadGateway, `upstream down`, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.ListUsers(context.Background(), "tok")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.expectedDetail, apiErr.Detail)
		})
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, platformhttp.NewHTTPClient(time.Second))

	_, err := c.ListUsers(context.Background(), "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "could not reach the API")
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, StatusOf(&APIError{Status: http.StatusNotFound}))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(io.EOF))
}

func TestClient_MeAndRegister(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"id":3,"email":"me@example.com","display_name":"Me","timezone":"UTC"}`)
		case "/auth/register":
			var in RegisterInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "new@example.com", in.Email)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":4,"email":"new@example.com","display_name":"New"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	me, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "UTC", me.Timezone)

	u, err := c.Register(context.Background(), "", RegisterInput{Email: "new@example.com", Password: "password123", DisplayName: "New"})
	require.NoError(t, err)
	assert.Equal(t, uint(4), u.ID)
}
