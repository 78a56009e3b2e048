// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// DefaultTimezone is the time zone assigned when registration omits one.
const DefaultTimezone = "Europe/Paris"

// User represents a registered user of the calendar.
// A user owns zero or more events; removing the user removes them too.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Email is the user's login address. It is stored lowercased and
	// must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// PasswordHash is the self-describing PBKDF2 string
	// (pbkdf2_sha256$<iterations>$<salt>$<key>). Never a plaintext password.
	PasswordHash string `gorm:"column:password_hash;size:255;not null"`

	// DisplayName is the name shown next to the user's events.
	DisplayName string `gorm:"size:255;not null"`

	// Timezone is an IANA zone name such as "Europe/Paris".
	Timezone string `gorm:"size:64;not null;default:Europe/Paris"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
