package util

import (
	"fmt"
	"strconv"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
)

// ParseYearMonth parses a year and a 1-12 calendar month taken from a URL or
// a flag, and returns the year with a zero-based month.
func ParseYearMonth(yearStr, monthStr string) (year, month int, err error) {
	year, err = strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: year %q is not a number", domain.ErrInvalidInput, yearStr)
	}
	calendarMonth, err := strconv.Atoi(monthStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q is not a number", domain.ErrInvalidInput, monthStr)
	}
	return FromCalendar(year, calendarMonth)
}

// FromCalendar converts a 1-12 month to the zero-based form and validates both
// parts.
func FromCalendar(year, calendarMonth int) (int, int, error) {
	month := calendarMonth - 1
	if err := domain.ValidateMonthYear(month, year); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// CalendarMonth converts a zero-based month to 1-12
func CalendarMonth(month int) int {
	return month + 1
}

// PreviousMonth returns the year and zero-based month before the given one
func PreviousMonth(year, month int) (int, int) {
	if month == 0 {
		return year - 1, 11
	}
	return year, month - 1
}
