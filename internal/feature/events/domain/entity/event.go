// Package entity defines the domain entities for the events feature.
package entity

import "time"

// DefaultStatus is the status assigned to events created without one.
const DefaultStatus = "confirmed"

// Event is a calendar entry owned by exactly one user.
type Event struct {
	ID uint

	// UserID is the owning user. It is always taken from the authenticated
	// caller, never from client input.
	UserID uint

	Title       string
	Description *string

	// Start and End are absolute instants. The API requires End to be after Start.
	Start time.Time
	End   time.Time

	AllDay   bool
	Location *string

	// RRule is an RFC 5545 recurrence rule. It is validated on write and
	// stored as-is; occurrences are never expanded.
	RRule *string

	// Status is free text, "confirmed" by default.
	Status string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the event intersects the half-open window [from, to).
// A zero from or to leaves that side unbounded.
func (e Event) Overlaps(from, to time.Time) bool {
	if !to.IsZero() && !e.Start.Before(to) {
		return false
	}
	if !from.IsZero() && !e.End.After(from) {
		return false
	}
	return true
}
