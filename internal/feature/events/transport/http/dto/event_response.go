package dto

import (
	"time"

	"calendar_backend/internal/feature/events/domain/entity"
)

// EventRes はイベントのJSON表現です。
type EventRes struct {
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
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewEventRes はエンティティからレスポンスを組み立てます。
func NewEventRes(e *entity.Event) EventRes {
	return EventRes{
		ID:            e.ID,
		UserID:        e.UserID,
		Title:         e.Title,
		Description:   e.Description,
		StartDatetime: e.Start,
		EndDatetime:   e.End,
		AllDay:        e.AllDay,
		Location:      e.Location,
		RRule:         e.RRule,
		Status:        e.Status,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// NewEventList は一覧用に変換します。空なら [] になります。
func NewEventList(events []entity.Event) []EventRes {
	out := make([]EventRes, 0, len(events))
	for i := range events {
		out = append(out, NewEventRes(&events[i]))
	}
	return out
}
