// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrNoAccounts    = errors.New("no accounts configured")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Checkin protocol errors.
	ErrLoginRequest     = errors.New("login request failed")
	ErrLoginRejected    = errors.New("login rejected")
	ErrCookieExtraction = errors.New("cookie extraction failed")
	ErrCheckinRequest   = errors.New("checkin request failed")
	ErrCheckinRejected  = errors.New("checkin rejected")

	// Run outcome.
	ErrCheckinFailed = errors.New("one or more checkins failed")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
