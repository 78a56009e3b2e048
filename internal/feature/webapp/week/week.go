// Package week はISO週（YYYY-WW）単位のカレンダー表示用の計算を提供します。
package week

import (
	"fmt"
	"time"
)

// Days は1週間の日数です。
const Days = 7

// Range はISO週 "YYYY-WW" の月曜0時から翌週月曜0時までを loc で返します。
// 空文字や解釈できない値の場合は now を含む週を返します。
func Range(weekParam string, now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start, ok := parse(weekParam, loc)
	if !ok {
		start = mondayOf(now.In(loc))
	}
	return start, start.AddDate(0, 0, Days)
}

func parse(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	var year, wk int
	var rest string
	if n, _ := fmt.Sscanf(s, "%4d-%2d%s", &year, &wk, &rest); n != 2 {
		return time.Time{}, false
	}
	if wk < 1 || wk > 53 {
		return time.Time{}, false
	}

	// 1月4日を含む週がISO第1週
	monday := mondayOf(time.Date(year, time.January, 4, 0, 0, 0, 0, loc)).AddDate(0, 0, (wk-1)*Days)
	if y, w := monday.ISOWeek(); y != year || w != wk {
		// 52週しかない年の第53週
		return time.Time{}, false
	}
	return monday, true
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// Label はtを含むISO週を "YYYY-WW" で返します。
func Label(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", y, w)
}

// Prev は前の週のラベルを返します。
func Prev(start time.Time) string {
	return Label(start.AddDate(0, 0, -Days))
}

// Next は次の週のラベルを返します。
func Next(start time.Time) string {
	return Label(start.AddDate(0, 0, Days))
}

// Dates は月曜から日曜までの各日の0時を返します。
func Dates(start time.Time) [Days]time.Time {
	var out [Days]time.Time
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// GroupByDay は週と重なる項目を開始日の列に振り分けます。
// 週より前に始まり週内に続く項目は月曜の列に入ります。各列の順序は入力順のままです。
func GroupByDay[T any](items []T, start time.Time, span func(T) (time.Time, time.Time)) [Days][]T {
	var out [Days][]T
	end := start.AddDate(0, 0, Days)
	for _, item := range items {
		s, e := span(item)
		if !s.Before(end) || !e.After(start) {
			continue
		}
		day := 0
		if s.After(start) {
			local := s.In(start.Location())
			for day = Days - 1; day > 0; day-- {
				if !local.Before(start.AddDate(0, 0, day)) {
					break
				}
			}
		}
		out[day] = append(out[day], item)
	}
	return out
}
