package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teambition/rrule-go"

	"calendar_backend/internal/feature/events/domain/entity"
)

// MaxTitleLength はタイトルの最大文字数です。
const MaxTitleLength = 255

// EventRepository はイベントの永続化層を抽象化します。
// 単一イベントを扱うメソッドはすべて所有者IDで絞り込みます。
type EventRepository interface {
	// List は所有者のイベントのうち [from, to) と重なるものを開始時刻順に返します。
	// ゼロ値の from / to はその側を無制限にします。
	List(ctx context.Context, userID uint, from, to time.Time) ([]entity.Event, error)

	// FindByID は所有者のイベントを返します。他人のイベントは ErrEventNotFound です。
	FindByID(ctx context.Context, userID, id uint) (*entity.Event, error)

	// Create はイベントを保存します。所有者が存在しなければ ErrOwnerNotFound です。
	Create(ctx context.Context, e *entity.Event) error

	// Update は所有者のイベントを保存し直します。
	Update(ctx context.Context, e *entity.Event) error

	// Delete は所有者のイベントを削除します。
	Delete(ctx context.Context, userID, id uint) error
}

// CreateInput は新規イベントの入力です。所有者は含みません。
type CreateInput struct {
	Title       string
	Description *string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    *string
	RRule       *string
	Status      string
}

// eventUsecase はイベントのビジネスロジックを実装します。
type eventUsecase struct {
	events EventRepository
}

// NewEventUsecase はeventUsecaseの新しいインスタンスを生成します。
func NewEventUsecase(events EventRepository) *eventUsecase {
	return &eventUsecase{events: events}
}

// NormalizeRRule は先頭の "RRULE:" を取り除き、空なら nil を返します。
func NormalizeRRule(rule *string) *string {
	if rule == nil {
		return nil
	}
	s := strings.TrimSpace(*rule)
	if len(s) >= len("RRULE:") && strings.EqualFold(s[:len("RRULE:")], "RRULE:") {
		s = strings.TrimSpace(s[len("RRULE:"):])
	}
	if s == "" {
		return nil
	}
	return &s
}

// ValidateRRule は繰り返しルールの構文のみを検証します。展開はしません。
func ValidateRRule(rule string) error {
	if !strings.Contains(strings.ToUpper(rule), "FREQ=") {
		return fmt.Errorf("%w: FREQ is required", ErrInvalidRRule)
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRRule, err)
	}
	return nil
}

// validate は保存前のイベントが不変条件を満たしているか確認し、正規化します。
func validate(e *entity.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !e.End.After(e.Start) {
		return ErrInvalidTimeRange
	}
	e.RRule = NormalizeRRule(e.RRule)
	if e.RRule != nil {
		if err := ValidateRRule(*e.RRule); err != nil {
			return err
		}
	}
	e.Status = strings.TrimSpace(e.Status)
	if e.Status == "" {
		e.Status = entity.DefaultStatus
	}
	return nil
}

// List は呼び出し元のイベントを返します。
func (u *eventUsecase) List(ctx context.Context, userID uint, from, to time.Time) ([]entity.Event, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrInvalidWindow
	}
	return u.events.List(ctx, userID, from, to)
}

// Get は呼び出し元のイベントを1件返します。
func (u *eventUsecase) Get(ctx context.Context, userID, id uint) (*entity.Event, error) {
	return u.events.FindByID(ctx, userID, id)
}

// Create は呼び出し元を所有者としてイベントを作成します。
func (u *eventUsecase) Create(ctx context.Context, userID uint, in CreateInput) (*entity.Event, error) {
	e := &entity.Event{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
		Location:    in.Location,
		RRule:       in.RRule,
		Status:      in.Status,
	}
	if err := validate(e); err != nil {
		return nil, err
	}
	if err := u.events.Create(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("event created", "user_id", userID, "event_id", e.ID)
	return e, nil
}

// Update は指定されたフィールドのみを更新します。結果は作成時と同じ不変条件を満たす必要があります。
func (u *eventUsecase) Update(ctx context.Context, userID, id uint, patch entity.EventPatch) (*entity.Event, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	e, err := u.events.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return e, nil
	}

	patch.Apply(e)
	if err := validate(e); err != nil {
		return nil, err
	}
	if err := u.events.Update(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("event updated", "user_id", userID, "event_id", e.ID)
	return e, nil
}

// Delete は呼び出し元のイベントを削除します。
func (u *eventUsecase) Delete(ctx context.Context, userID, id uint) error {
	if err := u.events.Delete(ctx, userID, id); err != nil {
		return err
	}
	slog.Info("event deleted", "user_id", userID, "event_id", id)
	return nil
}
