// Package apiclient はフロントエンドからAPIサーバーを呼び出すJSONクライアントを提供します。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// APIError はAPI呼び出しの失敗を表します。接続失敗はStatus 500として扱います。
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// StatusOf はerrがAPIErrorであればそのステータスを、そうでなければ500を返します。
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// User はAPIが返すユーザーです。
type User struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

// Event はAPIが返すイベントです。
type Event struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	AllDay        bool      `json:"all_day"`
	Location      *string   `json:"location"`
	RRule         *string   `json:"rrule"`
	Status        string    `json:"status"`
}

// EventInput はイベント作成・更新時に送るフィールドです。
// 空の説明・場所は null として送り、既存の値を消去します。
type EventInput struct {
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	AllDay        bool      `json:"all_day"`
	Location      *string   `json:"location"`
}

// RegisterInput はユーザー登録時に送るフィールドです。
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone,omitempty"`
}

// Client はAPIサーバーへのJSONクライアントです。
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient は指定されたベースURLとHTTPクライアントでClientを生成します。
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Login は認証してアクセストークンを返します。
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, body, &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", &APIError{Status: http.StatusInternalServerError, Detail: "no token received from the API"}
	}
	return res.AccessToken, nil
}

// Register は新しいユーザーを登録します。
func (c *Client) Register(ctx context.Context, token string, in RegisterInput) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/register", token, nil, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me はトークンの持ち主を返します。
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers は登録済みユーザーの一覧を返します。
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", token, nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListEvents は呼び出し元の [from, to) と重なるイベントを返します。
func (c *Client) ListEvents(ctx context.Context, token string, from, to time.Time) ([]Event, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.RFC3339))
	}
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", token, q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent はイベントを作成します。
func (c *Client) CreateEvent(ctx context.Context, token string, in EventInput) (*Event, error) {
	var ev Event
	if err := c.do(ctx, http.MethodPost, "/events", token, nil, in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent はイベントを更新します。
func (c *Client) UpdateEvent(ctx context.Context, token string, id uint, in EventInput) (*Event, error) {
	var ev Event
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/events/%d", id), token, nil, in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvent はイベントを削除します。
func (c *Client) DeleteEvent(ctx context.Context, token string, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), token, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Detail: "could not reach the API: " + err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: http.StatusInternalServerError, Detail: "unexpected API response: " + err.Error()}
	}
	return nil
}

// statusError はエラー応答をAPIErrorに変換します。
func statusError(resp *http.Response) *APIError {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &APIError{Status: resp.StatusCode, Detail: "Not authenticated. Please log in again."}
	case http.StatusForbidden:
		return &APIError{Status: resp.StatusCode, Detail: "Access forbidden."}
	case http.StatusNotFound:
		return &APIError{Status: resp.StatusCode, Detail: "Resource not found."}
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	detail := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		detail = payload.Error
		for _, field := range slices.Sorted(maps.Keys(payload.Fields)) {
			detail += "; " + field + ": " + payload.Fields[field]
		}
	}
	return &APIError{Status: resp.StatusCode, Detail: detail}
}
