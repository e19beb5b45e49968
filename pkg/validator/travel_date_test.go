package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 15, 30, 0, 0, time.Local)
	}
}

func TestTravelDateValidator_Validate(t *testing.T) {
	v := NewTravelDateValidator(2023, fixedClock(2025, time.June, 15))

	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"Today", "15/06/2025", nil},
		{"Tomorrow", "16/06/2025", nil},
		{"Next month earlier day", "01/07/2025", nil},
		{"Next year earlier month", "01/01/2026", nil},
		{"Lax day per month", "31/02/2026", nil},
		{"Yesterday", "14/06/2025", ErrDateInPast},
		{"Last month", "30/05/2025", ErrDateInPast},
		{"Last year", "20/12/2024", ErrDateInPast},
		{"Too short", "1/06/2025", ErrDateFormat},
		{"Too long", "15/06/20255", ErrDateFormat},
		{"Wrong separator", "15-06-2025", ErrDateFormat},
		{"Letters", "1a/06/2025", ErrDateFormat},
		{"Empty", "", ErrDateFormat},
		{"Day zero", "00/07/2025", ErrDateRange},
		{"Day 32", "32/07/2025", ErrDateRange},
		{"Month zero", "10/00/2025", ErrDateRange},
		{"Month 13", "10/13/2025", ErrDateRange},
		{"Before minimum year", "10/10/2022", ErrDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.date)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, v.IsValidFutureDate(tt.date))
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, v.IsValidFutureDate(tt.date))
			}
		})
	}
}

func TestTravelDateValidator_MinYearConfigurable(t *testing.T) {
	v := NewTravelDateValidator(2030, fixedClock(2025, time.June, 15))

	assert.ErrorIs(t, v.Validate("01/01/2029"), ErrDateRange)
	assert.NoError(t, v.Validate("01/01/2030"))
}

func TestNewTravelDateValidator_Defaults(t *testing.T) {
	v := NewTravelDateValidator(0, nil)

	assert.Equal(t, DefaultMinYear, v.minYear)
	assert.NotNil(t, v.now)
	assert.True(t, v.IsValidFutureDate(time.Now().AddDate(1, 0, 0).Format(TravelDateLayout)))
}
