package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")

	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)
	ErrMemberNotFound      = fmt.Errorf("family member %w", ErrNotFound)
	ErrParentNotFound      = fmt.Errorf("parent category %w", ErrNotFound)

	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title exceeds maximum length")
	ErrNameRequired        = errors.New("name is required")
	ErrNameTooLong         = errors.New("name exceeds maximum length")
	ErrNoteTooLong         = errors.New("note exceeds maximum length")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDateRequired        = errors.New("date is required")
	ErrInvalidMonth        = errors.New("month must be between 0 and 11")
	ErrInvalidYear         = errors.New("year must be between 2000 and 2100")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidPeriod       = errors.New("invalid budget period")
	ErrInvalidTheme        = errors.New("invalid theme")
	ErrInvalidRole         = errors.New("invalid member role")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrLastAdmin           = errors.New("family group must keep at least one admin")
	ErrUnsupportedVersion  = errors.New("unsupported snapshot version")
)

// Validation constants
const (
	MaxTitleLength = 255
	MaxNameLength  = 100
	MaxNoteLength  = 1000
	MinYear        = 2000
	MaxYear        = 2100
)

// ValidateMonthYear checks a zero-based month and a calendar year.
func ValidateMonthYear(month, year int) error {
	if month < 0 || month > 11 {
		return ErrInvalidMonth
	}
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}
