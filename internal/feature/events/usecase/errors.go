// Package usecase implements the business logic for the events feature.
package usecase

import "errors"

var (
	// ErrEventNotFound is returned when the event does not exist or belongs to another user.
	// The two cases are deliberately indistinguishable.
	ErrEventNotFound = errors.New("event not found")

	// ErrOwnerNotFound is returned when the owning user does not exist in the store.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrInvalidTimeRange is returned when an event does not end after it starts.
	ErrInvalidTimeRange = errors.New("end_datetime must be after start_datetime")

	// ErrInvalidWindow is returned when a list filter has from after to.
	ErrInvalidWindow = errors.New("from must not be after to")

	// ErrInvalidRRule is returned when the recurrence rule cannot be parsed.
	ErrInvalidRRule = errors.New("invalid recurrence rule")

	// ErrEmptyTitle is returned when the title is blank.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrTitleTooLong is returned when the title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title is too long")
)
