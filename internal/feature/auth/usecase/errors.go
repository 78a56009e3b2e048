// Package usecase implements the business logic for the auth feature.
package usecase

import (
	"errors"

	"calendar_backend/internal/feature/auth/domain"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	// It is the domain sentinel, so callers outside the usecase can match it too.
	ErrUserNotFound = domain.ErrUserNotFound

	// ErrEmailAlreadyExists is returned when registering an email that is already taken.
	ErrEmailAlreadyExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Login for both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidTimezone is returned when the requested time zone is not a known IANA zone.
	ErrInvalidTimezone = errors.New("unknown time zone")

	// ErrWeakPassword is returned when the password does not meet the minimum length.
	ErrWeakPassword = errors.New("password too short")
)
