// Package dto はeventsフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"time"

	"calendar_backend/internal/feature/events/domain/entity"
	"calendar_backend/internal/feature/events/usecase"
)

// CreateEventReq は POST /events のリクエストボディです。
// 所有者のフィールドは持たず、送られてきても無視されます。
type CreateEventReq struct {
	Title         string    `json:"title" binding:"required"`
	Description   *string   `json:"description"`
	StartDatetime time.Time `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time `json:"end_datetime" binding:"required"`
	AllDay        bool      `json:"all_day"`
	Location      *string   `json:"location" binding:"omitempty,max=255"`
	RRule         *string   `json:"rrule" binding:"omitempty,max=512"`
	Status        string    `json:"status" binding:"omitempty,max=50"`
}

// ToInput はユースケースの入力に変換します。
func (r CreateEventReq) ToInput() usecase.CreateInput {
	return usecase.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Start:       r.StartDatetime,
		End:         r.EndDatetime,
		AllDay:      r.AllDay,
		Location:    r.Location,
		RRule:       r.RRule,
		Status:      r.Status,
	}
}

// UpdateEventReq は PUT /events/:id のリクエストボディです。
// 送られたキーのみが更新され、null は説明・場所・繰り返しルールを消去します。
type UpdateEventReq struct {
	Title         entity.Optional[string]    `json:"title"`
	Description   entity.Optional[string]    `json:"description"`
	StartDatetime entity.Optional[time.Time] `json:"start_datetime"`
	EndDatetime   entity.Optional[time.Time] `json:"end_datetime"`
	AllDay        entity.Optional[bool]      `json:"all_day"`
	Location      entity.Optional[string]    `json:"location"`
	RRule         entity.Optional[string]    `json:"rrule"`
	Status        entity.Optional[string]    `json:"status"`
}

// ToPatch はドメインの部分更新に変換します。
func (r UpdateEventReq) ToPatch() entity.EventPatch {
	return entity.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		Start:       r.StartDatetime,
		End:         r.EndDatetime,
		AllDay:      r.AllDay,
		Location:    r.Location,
		RRule:       r.RRule,
		Status:      r.Status,
	}
}
