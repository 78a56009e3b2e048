package di

import (
	authentity "calendar_backend/internal/feature/auth/domain/entity"
	eventsadapters "calendar_backend/internal/feature/events/adapters"
)

// Models returns every gorm model in migration order. Users come first because
// events reference them.
func Models() []any {
	return []any{
		&authentity.User{},
		&eventsadapters.EventModel{},
	}
}
