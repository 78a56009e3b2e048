// Package handler はeventsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"calendar_backend/internal/api"
	"calendar_backend/internal/feature/events/adapters/ical"
	"calendar_backend/internal/feature/events/domain/entity"
	"calendar_backend/internal/feature/events/transport/http/dto"
	"calendar_backend/internal/feature/events/usecase"
	jwtmw "calendar_backend/internal/platform/jwt"
)

// MsgEventNotFound は存在しない、または他人のイベントに対する404のメッセージです。
const MsgEventNotFound = "event not found"

// EventUsecase はイベント操作のユースケースを定義します。
type EventUsecase interface {
	List(ctx context.Context, userID uint, from, to time.Time) ([]entity.Event, error)
	Get(ctx context.Context, userID, id uint) (*entity.Event, error)
	Create(ctx context.Context, userID uint, in usecase.CreateInput) (*entity.Event, error)
	Update(ctx context.Context, userID, id uint, patch entity.EventPatch) (*entity.Event, error)
	Delete(ctx context.Context, userID, id uint) error
}

// EventHandler は /events 配下のHTTPリクエストを処理します。
// すべてのルートは AuthRequired の後段に置かれる前提です。
type EventHandler struct {
	events EventUsecase
	now    func() time.Time
}

// NewEventHandler はEventHandlerの新しいインスタンスを生成します。
func NewEventHandler(events EventUsecase) *EventHandler {
	return &EventHandler{events: events, now: time.Now}
}

// List は GET /events?from=&to= を処理します。from/to はRFC3339で、指定した期間と重なるイベントを返します。
func (h *EventHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	events, err := h.events.List(c.Request.Context(), userID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewEventList(events))
}

// Export は GET /events.ics を処理し、呼び出し元のイベントをiCalendarとして返します。
func (h *EventHandler) Export(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	events, err := h.events.List(c.Request.Context(), userID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	name, loc := "", time.UTC
	if u, ok := jwtmw.CurrentUser(c); ok {
		name = u.DisplayName
		loc = userLocation(u.Timezone)
	}
	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, ical.ContentType, []byte(ical.Encode(events, name, loc, h.now())))
}

// Get は GET /events/:id を処理します。
func (h *EventHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	ev, err := h.events.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewEventRes(ev))
}

// Create は POST /events を処理します。所有者は常に認証済みの呼び出し元です。
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidationError(err))
		return
	}

	ev, err := h.events.Create(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewEventRes(ev))
}

// Update は PUT /events/:id を処理します。送られたフィールドのみ更新します。
func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidationError(err))
		return
	}

	ev, err := h.events.Update(c.Request.Context(), userID, id, req.ToPatch())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewEventRes(ev))
}

// Delete は DELETE /events/:id を処理します。
func (h *EventHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.events.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Event deleted"})
}

// respondError はユースケースのエラーをHTTPステータスに変換します。
func (h *EventHandler) respondError(c *gin.Context, err error) {
	var nullErr *entity.NullFieldError
	switch {
	case errors.Is(err, usecase.ErrEventNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: MsgEventNotFound})
	case errors.Is(err, usecase.ErrInvalidTimeRange):
		fieldError(c, "end_datetime", err)
	case errors.Is(err, usecase.ErrInvalidRRule):
		fieldError(c, "rrule", err)
	case errors.Is(err, usecase.ErrEmptyTitle), errors.Is(err, usecase.ErrTitleTooLong):
		fieldError(c, "title", err)
	case errors.Is(err, usecase.ErrInvalidWindow):
		fieldError(c, "from", err)
	case errors.As(err, &nullErr):
		fieldError(c, nullErr.Field, err)
	case errors.Is(err, usecase.ErrOwnerNotFound):
		// トークン検証後に所有者が削除された
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: jwtmw.UnauthorizedMessage})
	default:
		api.AbortInternal(c, err)
	}
}

func fieldError(c *gin.Context, field string, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  "validation failed",
		Fields: map[string]string{field: err.Error()},
	})
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: jwtmw.UnauthorizedMessage})
		return 0, false
	}
	return userID, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fieldError(c, "id", errors.New("must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// parseWindow は任意のクエリ from/to をRFC3339として読み取ります。
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	for _, q := range []struct {
		key string
		dst *time.Time
	}{{"from", &from}, {"to", &to}} {
		raw := c.Query(q.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldError(c, q.key, errors.New("must be an RFC3339 timestamp"))
			return time.Time{}, time.Time{}, false
		}
		*q.dst = t
	}
	return from, to, true
}

// userLocation はユーザーのタイムゾーンを読み込みます。読めなければUTCです。
func userLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("unknown user time zone, using UTC", "timezone", tz, "error", err)
		return time.UTC
	}
	return loc
}
