// Package seed はデモ用のユーザーとイベントを投入します。
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"gorm.io/gorm"

	authadapters "calendar_backend/internal/feature/auth/adapters"
	authusecase "calendar_backend/internal/feature/auth/usecase"
	eventsadapters "calendar_backend/internal/feature/events/adapters"
	eventsusecase "calendar_backend/internal/feature/events/usecase"
	"calendar_backend/internal/feature/webapp/week"
	"calendar_backend/internal/platform/db"
)

// DemoPassword は投入するユーザー全員のパスワードです。
const DemoPassword = "password123"

// Result は投入結果の件数です。
type Result struct {
	UsersCreated  int
	UsersSkipped  int
	EventsCreated int
}

type demoEvent struct {
	weekOffset  int
	day         int // 0 = 月曜
	start, end  string
	allDay      bool
	title       string
	description string
	location    string
	rrule       string
}

type demoUser struct {
	email, name string
	events      []demoEvent
}

var demoUsers = []demoUser{
	{
		email: "alice@example.com",
		name:  "Alice Martin",
		events: []demoEvent{
			{0, 0, "09:00", "10:30", false, "Project meeting", "Sprint goals with the team.", "Room 203", ""},
			{0, 1, "14:00", "15:00", false, "Code review", "", "", ""},
			{0, 2, "12:00", "13:00", false, "Lunch with Bob", "", "Cafeteria", ""},
			{0, 3, "09:30", "09:45", false, "Standup", "", "", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"},
			{0, 4, "", "", true, "Conference", "Annual developer conference.", "Paris", ""},
			{1, 0, "10:00", "11:00", false, "Sprint planning", "", "Room 101", ""},
			{1, 2, "16:00", "17:30", false, "Workshop", "Hands-on session.", "Lab", ""},
		},
	},
	{
		email: "bob@example.com",
		name:  "Bob Durand",
		events: []demoEvent{
			{0, 0, "08:30", "09:00", false, "Email triage", "", "", ""},
			{0, 2, "12:00", "13:00", false, "Lunch with Alice", "", "Cafeteria", ""},
			{0, 3, "15:00", "16:00", false, "Client call", "Quarterly review.", "", ""},
			{1, 1, "09:00", "12:00", false, "Training", "", "Room 305", ""},
			{1, 4, "", "", true, "Day off", "", "", ""},
		},
	},
}

// Run はデモデータを1つのトランザクションで投入します。既に存在するユーザーはイベントごと飛ばします。
func Run(ctx context.Context, gdb *gorm.DB, hasher authusecase.PasswordHasher, now time.Time) (Result, error) {
	var res Result

	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return res, fmt.Errorf("failed to load timezone: %w", err)
	}
	weekStart, _ := week.Range("", now, loc)

	err = db.RunInTx(ctx, gdb, func(ctx context.Context) error {
		userRepo := authadapters.NewUserGorm(gdb)
		users := authusecase.NewAuthUsecase(userRepo, hasher, nil)
		events := eventsusecase.NewEventUsecase(eventsadapters.NewEventGorm(gdb))

		for _, du := range demoUsers {
			// 一意制約違反はPostgreSQLのトランザクションを中断させるため、先に存在を確認する
			_, err := userRepo.FindByEmail(ctx, du.email)
			if err == nil {
				slog.Info("seed user already exists", "email", du.email)
				res.UsersSkipped++
				continue
			}
			if !errors.Is(err, authusecase.ErrUserNotFound) {
				return fmt.Errorf("failed to look up %s: %w", du.email, err)
			}

			u, err := users.Register(ctx, authusecase.RegisterInput{
				Email:       du.email,
				Password:    DemoPassword,
				DisplayName: du.name,
				Timezone:    loc.String(),
			})
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", du.email, err)
			}
			res.UsersCreated++

			for _, de := range du.events {
				in, err := de.input(weekStart)
				if err != nil {
					return err
				}
				if _, err := events.Create(ctx, u.ID, in); err != nil {
					return fmt.Errorf("failed to create event %q: %w", de.title, err)
				}
				res.EventsCreated++
			}
		}
		return nil
	})
	return res, err
}

func (de demoEvent) input(weekStart time.Time) (eventsusecase.CreateInput, error) {
	day := weekStart.AddDate(0, 0, de.weekOffset*week.Days+de.day)
	in := eventsusecase.CreateInput{Title: de.title, AllDay: de.allDay}
	if de.description != "" {
		in.Description = &de.description
	}
	if de.location != "" {
		in.Location = &de.location
	}
	if de.rrule != "" {
		in.RRule = &de.rrule
	}

	if de.allDay {
		in.Start, in.End = day, day.AddDate(0, 0, 1)
		return in, nil
	}
	var err error
	if in.Start, err = at(day, de.start); err != nil {
		return in, err
	}
	if in.End, err = at(day, de.end); err != nil {
		return in, err
	}
	return in, nil
}

func at(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
