package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"calendar_backend/internal/feature/webapp/apiclient"
	"calendar_backend/internal/feature/webapp/week"
)

const (
	// MsgBadCredentials はログイン失敗時に表示するメッセージです。
	MsgBadCredentials = "Incorrect email or password."
	// MsgInvalidTimeRange は終了が開始以前のときに表示するメッセージです。
	MsgInvalidTimeRange = "End time must be after start time."
)

// API はフロントエンドが利用するAPIサーバーの操作です。
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, token string, in apiclient.RegisterInput) (*apiclient.User, error)
	Me(ctx context.Context, token string) (*apiclient.User, error)
	ListUsers(ctx context.Context, token string) ([]apiclient.User, error)
	ListEvents(ctx context.Context, token string, from, to time.Time) ([]apiclient.Event, error)
	CreateEvent(ctx context.Context, token string, in apiclient.EventInput) (*apiclient.Event, error)
	UpdateEvent(ctx context.Context, token string, id uint, in apiclient.EventInput) (*apiclient.Event, error)
	DeleteEvent(ctx context.Context, token string, id uint) error
}

// Pages はフロントエンドのページを処理します。
type Pages struct {
	api          API
	cookieSecure bool
	now          func() time.Time
}

// NewPages はPagesの新しいインスタンスを生成します。
func NewPages(api API, cookieSecure bool) *Pages {
	return &Pages{api: api, cookieSecure: cookieSecure, now: time.Now}
}

type loginPage struct {
	page
	Email string
}

type usersPage struct {
	page
	Users         []apiclient.User
	CurrentUserID uint
}

type calendarPage struct {
	page
	Week        string
	PrevWeek    string
	NextWeek    string
	RangeLabel  string
	Timezone    string
	DefaultDate string
	Days        []dayColumn
}

type dayColumn struct {
	Date   time.Time
	Events []eventView
}

type eventView struct {
	ID          uint
	Title       string
	Description string
	Location    string
	Date        string
	StartTime   string
	EndTime     string
	AllDay      bool
	TimeLabel   string
	Owner       string
}

// Root は / を処理し、Cookieの有無に応じてリダイレクトします。
func (p *Pages) Root(c *gin.Context) {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		c.Redirect(http.StatusSeeOther, "/calendar")
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// LoginForm は GET /login を処理します。
func (p *Pages) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", loginPage{page: page{Title: "Sign in"}})
}

// Login は POST /login を処理し、成功時にトークンをCookieに保存します。
func (p *Pages) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	token, err := p.api.Login(c.Request.Context(), email, password)
	if err != nil {
		status := apiclient.StatusOf(err)
		msg := MsgBadCredentials
		if status != http.StatusUnauthorized {
			slog.Warn("login failed", "status", status, "error", err)
			msg = detailOf(err)
		}
		c.HTML(status, "login.html", loginPage{page: page{Title: "Sign in", Error: msg}, Email: email})
		return
	}

	setCookie(c, token, p.cookieSecure)
	c.Redirect(http.StatusSeeOther, "/calendar")
}

// Logout は GET /logout を処理し、Cookieを削除します。
func (p *Pages) Logout(c *gin.Context) {
	clearCookie(c, p.cookieSecure)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Calendar は GET /calendar?week=YYYY-WW を処理し、週表示を返します。
func (p *Pages) Calendar(c *gin.Context) {
	p.renderCalendar(c, c.Query("week"), http.StatusOK, "", "")
}

// CreateEvent は POST /events を処理します。
func (p *Pages) CreateEvent(c *gin.Context) {
	weekParam := c.PostForm("week")
	in, ok := p.bindEvent(c, weekParam)
	if !ok {
		return
	}
	if _, err := p.api.CreateEvent(c.Request.Context(), sessionToken(c), in); err != nil {
		p.apiFailure(c, weekParam, err)
		return
	}
	redirectToWeek(c, weekParam)
}

// UpdateEvent は POST /events/:id を処理します。
func (p *Pages) UpdateEvent(c *gin.Context) {
	weekParam := c.PostForm("week")
	id, ok := p.eventID(c, weekParam)
	if !ok {
		return
	}
	in, ok := p.bindEvent(c, weekParam)
	if !ok {
		return
	}
	if _, err := p.api.UpdateEvent(c.Request.Context(), sessionToken(c), id, in); err != nil {
		p.apiFailure(c, weekParam, err)
		return
	}
	redirectToWeek(c, weekParam)
}

// DeleteEvent は POST /events/:id/delete を処理します。
func (p *Pages) DeleteEvent(c *gin.Context) {
	weekParam := c.PostForm("week")
	id, ok := p.eventID(c, weekParam)
	if !ok {
		return
	}
	if err := p.api.DeleteEvent(c.Request.Context(), sessionToken(c), id); err != nil {
		p.apiFailure(c, weekParam, err)
		return
	}
	redirectToWeek(c, weekParam)
}

// Users は GET /users を処理します。
func (p *Pages) Users(c *gin.Context) {
	p.renderUsers(c, http.StatusOK, "", "")
}

// CreateUser は POST /users を処理し、APIで新しいユーザーを登録します。
func (p *Pages) CreateUser(c *gin.Context) {
	timezone := strings.TrimSpace(c.PostForm("timezone"))
	if timezone == "" {
		timezone = "Europe/Paris"
	}
	in := apiclient.RegisterInput{
		Email:       strings.TrimSpace(c.PostForm("email")),
		Password:    c.PostForm("password"),
		DisplayName: strings.TrimSpace(c.PostForm("display_name")),
		Timezone:    timezone,
	}

	u, err := p.api.Register(c.Request.Context(), sessionToken(c), in)
	if err != nil {
		if p.sessionExpired(c, err) {
			return
		}
		p.renderUsers(c, apiclient.StatusOf(err), detailOf(err), "")
		return
	}
	p.renderUsers(c, http.StatusOK, "", fmt.Sprintf("User %s created.", u.DisplayName))
}

func (p *Pages) renderUsers(c *gin.Context, status int, errMsg, success string) {
	data := usersPage{
		page:          page{Title: "Users", LoggedIn: true, Error: errMsg, Success: success},
		CurrentUserID: sessionUserID(c),
	}
	users, err := p.api.ListUsers(c.Request.Context(), sessionToken(c))
	if err != nil {
		if p.sessionExpired(c, err) {
			return
		}
		if data.Error == "" {
			data.Error = detailOf(err)
			status = apiclient.StatusOf(err)
		}
	}
	data.Users = users
	c.HTML(status, "users.html", data)
}

func (p *Pages) renderCalendar(c *gin.Context, weekParam string, status int, errMsg, success string) {
	ctx := c.Request.Context()
	token := sessionToken(c)

	loc := time.UTC
	me, err := p.api.Me(ctx, token)
	if err != nil {
		if p.sessionExpired(c, err) {
			return
		}
		slog.Warn("failed to load current user", "error", err)
	} else if l, err := time.LoadLocation(me.Timezone); err == nil {
		loc = l
	}

	start, end := week.Range(weekParam, p.now(), loc)
	data := calendarPage{
		page:        page{Title: "Calendar", LoggedIn: true, Error: errMsg, Success: success},
		Week:        week.Label(start),
		PrevWeek:    week.Prev(start),
		NextWeek:    week.Next(start),
		RangeLabel:  fmt.Sprintf("%s - %s", start.Format("02/01/2006"), end.AddDate(0, 0, -1).Format("02/01/2006")),
		Timezone:    loc.String(),
		DefaultDate: start.Format(time.DateOnly),
	}

	events, err := p.api.ListEvents(ctx, token, start, end)
	if err != nil {
		if p.sessionExpired(c, err) {
			return
		}
		slog.Error("failed to load events", "error", err)
		if data.Error == "" {
			data.Error = detailOf(err)
			status = apiclient.StatusOf(err)
		}
	}

	owners := map[uint]string{}
	if users, err := p.api.ListUsers(ctx, token); err == nil {
		for _, u := range users {
			owners[u.ID] = u.DisplayName
		}
	} else {
		slog.Warn("failed to load users", "error", err)
	}

	grouped := week.GroupByDay(events, start, func(e apiclient.Event) (time.Time, time.Time) {
		return e.StartDatetime, e.EndDatetime
	})
	for i, date := range week.Dates(start) {
		col := dayColumn{Date: date}
		for _, e := range grouped[i] {
			col.Events = append(col.Events, newEventView(e, loc, owners))
		}
		data.Days = append(data.Days, col)
	}

	c.HTML(status, "calendar.html", data)
}

func newEventView(e apiclient.Event, loc *time.Location, owners map[uint]string) eventView {
	start, end := e.StartDatetime.In(loc), e.EndDatetime.In(loc)
	v := eventView{
		ID:        e.ID,
		Title:     e.Title,
		Date:      start.Format(time.DateOnly),
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
		AllDay:    e.AllDay,
		Owner:     owners[e.UserID],
	}
	if e.Description != nil {
		v.Description = *e.Description
	}
	if e.Location != nil {
		v.Location = *e.Location
	}
	if e.AllDay {
		v.TimeLabel = "All day"
	} else {
		v.TimeLabel = v.StartTime + " - " + v.EndTime
	}
	return v
}

// bindEvent はフォームからイベント入力を組み立てます。不正ならカレンダーを400で再表示します。
func (p *Pages) bindEvent(c *gin.Context, weekParam string) (apiclient.EventInput, bool) {
	loc := time.UTC
	if me, err := p.api.Me(c.Request.Context(), sessionToken(c)); err == nil {
		if l, err := time.LoadLocation(me.Timezone); err == nil {
			loc = l
		}
	}

	in, err := parseEventForm(c, loc)
	if err != nil {
		p.renderCalendar(c, weekParam, http.StatusBadRequest, err.Error(), "")
		return apiclient.EventInput{}, false
	}
	return in, true
}

func parseEventForm(c *gin.Context, loc *time.Location) (apiclient.EventInput, error) {
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		return apiclient.EventInput{}, formError("Title is required.")
	}
	day, err := time.ParseInLocation(time.DateOnly, c.PostForm("date"), loc)
	if err != nil {
		return apiclient.EventInput{}, formError("Date must be YYYY-MM-DD.")
	}

	in := apiclient.EventInput{
		Title:       title,
		Description: optionalText(c.PostForm("description")),
		Location:    optionalText(c.PostForm("location")),
	}
	if allDay, _ := strconv.ParseBool(c.PostForm("all_day")); allDay {
		in.AllDay = true
		in.StartDatetime = day
		in.EndDatetime = day.AddDate(0, 0, 1)
		return in, nil
	}

	start, err := clock(day, c.PostForm("start_time"))
	if err != nil {
		return apiclient.EventInput{}, formError("Start time must be HH:MM.")
	}
	end, err := clock(day, c.PostForm("end_time"))
	if err != nil {
		return apiclient.EventInput{}, formError("End time must be HH:MM.")
	}
	if !end.After(start) {
		return apiclient.EventInput{}, formError(MsgInvalidTimeRange)
	}
	in.StartDatetime, in.EndDatetime = start, end
	return in, nil
}

// formError はフォームの入力エラーで、メッセージをそのまま画面に表示します。
type formError string

func (e formError) Error() string { return string(e) }

// clock は day の日付に "HH:MM" の時刻を合わせます。
func clock(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (p *Pages) eventID(c *gin.Context, weekParam string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		p.renderCalendar(c, weekParam, http.StatusBadRequest, "Unknown event.", "")
		return 0, false
	}
	return uint(id), true
}

// apiFailure はAPIエラーをカレンダー上に表示します。セッション切れならログインへ戻します。
func (p *Pages) apiFailure(c *gin.Context, weekParam string, err error) {
	if p.sessionExpired(c, err) {
		return
	}
	p.renderCalendar(c, weekParam, apiclient.StatusOf(err), detailOf(err), "")
}

// sessionExpired はAPIが401を返した場合にCookieを消してログインへリダイレクトします。
func (p *Pages) sessionExpired(c *gin.Context, err error) bool {
	if apiclient.StatusOf(err) != http.StatusUnauthorized {
		return false
	}
	clearCookie(c, p.cookieSecure)
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
	return true
}

func redirectToWeek(c *gin.Context, weekParam string) {
	target := "/calendar"
	if weekParam != "" {
		target += "?week=" + url.QueryEscape(weekParam)
	}
	c.Redirect(http.StatusSeeOther, target)
}

func detailOf(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}
