// Package adapters はeventsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	authentity "calendar_backend/internal/feature/auth/domain/entity"
	"calendar_backend/internal/feature/events/domain/entity"
	"calendar_backend/internal/feature/events/usecase"
	"calendar_backend/internal/platform/db"
)

// pgForeignKeyViolation はPostgreSQLの外部キー違反のSQLSTATEです。
const pgForeignKeyViolation = "23503"

// EventModel はeventsテーブルのGORMモデルです。
// user_id は users への外部キーで、ユーザー削除時に連鎖削除されます。
type EventModel struct {
	ID            uint             `gorm:"primaryKey"`
	UserID        uint             `gorm:"not null;index:idx_events_user_start,priority:1"`
	User          *authentity.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title         string           `gorm:"size:255;not null"`
	Description   *string          `gorm:"type:text"`
	StartDatetime time.Time        `gorm:"column:start_datetime;not null;index:idx_events_user_start,priority:2"`
	EndDatetime   time.Time        `gorm:"column:end_datetime;not null"`
	AllDay        bool             `gorm:"not null;default:false"`
	Location      *string          `gorm:"size:255"`
	RRule         *string          `gorm:"column:rrule;size:512"`
	Status        string           `gorm:"size:50;not null;default:confirmed"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName はテーブル名を返します。
func (EventModel) TableName() string { return "events" }

// storedTime は比較可能な形で保存するため、UTC・マイクロ秒精度に揃えます。
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func toModel(e *entity.Event) EventModel {
	return EventModel{
		ID:            e.ID,
		UserID:        e.UserID,
		Title:         e.Title,
		Description:   e.Description,
		StartDatetime: storedTime(e.Start),
		EndDatetime:   storedTime(e.End),
		AllDay:        e.AllDay,
		Location:      e.Location,
		RRule:         e.RRule,
		Status:        e.Status,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (m EventModel) toEntity() entity.Event {
	return entity.Event{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Start:       m.StartDatetime.UTC(),
		End:         m.EndDatetime.UTC(),
		AllDay:      m.AllDay,
		Location:    m.Location,
		RRule:       m.RRule,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// eventGorm はEventRepositoryインターフェースのGORM実装です。
type eventGorm struct {
	db *gorm.DB
}

var _ usecase.EventRepository = (*eventGorm)(nil)

// NewEventGorm は指定されたgorm.DB接続でeventGormの新しいインスタンスを生成します。
func NewEventGorm(gdb *gorm.DB) *eventGorm {
	return &eventGorm{db: gdb}
}

func (r *eventGorm) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// List は [from, to) と重なる所有者のイベントを開始時刻順に返します。
func (r *eventGorm) List(ctx context.Context, userID uint, from, to time.Time) ([]entity.Event, error) {
	q := r.conn(ctx).Where("user_id = ?", userID)
	if !to.IsZero() {
		q = q.Where("start_datetime < ?", storedTime(to))
	}
	if !from.IsZero() {
		q = q.Where("end_datetime > ?", storedTime(from))
	}

	var models []EventModel
	if err := q.Order("start_datetime").Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]entity.Event, 0, len(models))
	for _, m := range models {
		out = append(out, m.toEntity())
	}
	return out, nil
}

// FindByID は id と所有者の両方が一致するイベントを返します。
func (r *eventGorm) FindByID(ctx context.Context, userID, id uint) (*entity.Event, error) {
	var m EventModel
	if err := r.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e := m.toEntity()
	return &e, nil
}

// Create はイベントを保存し、採番されたIDとタイムスタンプをeに反映します。
func (r *eventGorm) Create(ctx context.Context, e *entity.Event) error {
	m := toModel(e)
	m.ID = 0
	if err := r.conn(ctx).Create(&m).Error; err != nil {
		if isForeignKeyViolation(err) {
			return usecase.ErrOwnerNotFound
		}
		return fmt.Errorf("create event: %w", err)
	}
	*e = m.toEntity()
	return nil
}

// Update は所有者のイベントの全項目を書き換えます。nilのポインタはNULLとして保存されます。
func (r *eventGorm) Update(ctx context.Context, e *entity.Event) error {
	m := toModel(e)
	m.UpdatedAt = time.Now().UTC()

	res := r.conn(ctx).Model(&EventModel{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Updates(map[string]any{
			"title":          m.Title,
			"description":    m.Description,
			"start_datetime": m.StartDatetime,
			"end_datetime":   m.EndDatetime,
			"all_day":        m.AllDay,
			"location":       m.Location,
			"rrule":          m.RRule,
			"status":         m.Status,
			"updated_at":     m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrEventNotFound
	}

	e.Start, e.End, e.UpdatedAt = m.StartDatetime, m.EndDatetime, m.UpdatedAt
	return nil
}

// Delete は id と所有者の両方が一致するイベントを削除します。
func (r *eventGorm) Delete(ctx context.Context, userID, id uint) error {
	res := r.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&EventModel{})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrEventNotFound
	}
	return nil
}
