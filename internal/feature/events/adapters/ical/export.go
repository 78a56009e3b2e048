// Package ical はイベントをiCalendar(RFC 5545)形式に書き出します。
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"calendar_backend/internal/feature/events/domain/entity"
)

// ProductID はPRODIDプロパティの値です。
const ProductID = "-//calendar_backend//Personal Calendar//EN"

// ContentType はiCalendar応答のContent-Typeです。
const ContentType = "text/calendar; charset=utf-8"

// UID はイベントIDから安定したUIDを作ります。
func UID(id uint) string {
	return fmt.Sprintf("event-%d@calendar_backend", id)
}

// Encode はイベント一覧を1つのVCALENDARとして直列化します。
// 終日イベントの日付は loc（所有者のタイムゾーン、nilならUTC）で決めます。
// RRULEは保存されている文字列をそのまま出力し、展開は購読側に任せます。
func Encode(events []entity.Event, calendarName string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	for _, e := range events {
		ve := cal.AddEvent(UID(e.ID))
		ve.SetDtStampTime(now.UTC())
		if !e.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.CreatedAt.UTC())
		}
		if !e.UpdatedAt.IsZero() {
			ve.SetModifiedAt(e.UpdatedAt.UTC())
		}

		if e.AllDay {
			start, end := e.Start.In(loc), e.End.In(loc)
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(allDayEnd(start, end))
		} else {
			ve.SetStartAt(e.Start.UTC())
			ve.SetEndAt(e.End.UTC())
		}

		ve.SetSummary(e.Title)
		if e.Description != nil {
			ve.SetDescription(*e.Description)
		}
		if e.Location != nil {
			ve.SetLocation(*e.Location)
		}
		if e.RRule != nil {
			ve.SetProperty(ics.ComponentPropertyRrule, *e.RRule)
		}
		if st, ok := objectStatus(e.Status); ok {
			ve.SetStatus(st)
		}
	}

	return cal.Serialize()
}

// allDayEnd はDTENDの排他的な終了日を返します。
// 終了時刻が日の途中なら翌日、開始日以前なら開始日の翌日になります。
func allDayEnd(start, end time.Time) time.Time {
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	if end.After(endDay) {
		endDay = endDay.AddDate(0, 0, 1)
	}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	if !endDay.After(startDay) {
		endDay = startDay.AddDate(0, 0, 1)
	}
	return endDay
}

// objectStatus はRFC 5545で定義されたステータスのみ出力します。
func objectStatus(status string) (ics.ObjectStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirmed":
		return ics.ObjectStatusConfirmed, true
	case "tentative":
		return ics.ObjectStatusTentative, true
	case "cancelled", "canceled":
		return ics.ObjectStatusCancelled, true
	default:
		return "", false
	}
}
