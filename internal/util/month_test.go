package util

import (
	"testing"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		name      string
		year      string
		month     string
		wantYear  int
		wantMonth int
		wantErr   error
	}{
		{name: "january", year: "2025", month: "1", wantYear: 2025, wantMonth: 0},
		{name: "december", year: "2024", month: "12", wantYear: 2024, wantMonth: 11},
		{name: "month zero", year: "2025", month: "0", wantErr: domain.ErrInvalidMonth},
		{name: "month thirteen", year: "2025", month: "13", wantErr: domain.ErrInvalidMonth},
		{name: "year too small", year: "1999", month: "5", wantErr: domain.ErrInvalidYear},
		{name: "year not a number", year: "abc", month: "5", wantErr: domain.ErrInvalidInput},
		{name: "month not a number", year: "2025", month: "may", wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month, err := ParseYearMonth(tt.year, tt.month)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantMonth, month)
		})
	}
}

func TestCalendarMonth(t *testing.T) {
	assert.Equal(t, 1, CalendarMonth(0))
	assert.Equal(t, 12, CalendarMonth(11))
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		year      int
		month     int
		wantYear  int
		wantMonth int
	}{
		{2026, 5, 2026, 4},   // June -> May
		{2026, 11, 2026, 10}, // Dec -> Nov
		{2026, 0, 2025, 11},  // Jan -> Dec of previous year
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		assert.Equal(t, tt.wantYear, gotYear)
		assert.Equal(t, tt.wantMonth, gotMonth)
	}
}
