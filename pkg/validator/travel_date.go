package validator

import (
	"errors"
	"time"
)

var (
	// ErrDateFormat indicates the travel date is not in DD/MM/YYYY form
	ErrDateFormat = errors.New("travel date must be in DD/MM/YYYY format")

	// ErrDateRange indicates day, month or year are outside the accepted range
	ErrDateRange = errors.New("travel date has an invalid day, month or year")

	// ErrDateInPast indicates the travel date is before today
	ErrDateInPast = errors.New("travel date must be today or a future date")
)

// DefaultMinYear is the earliest travel year accepted when none is configured
const DefaultMinYear = 2023

// TravelDateLayout is the time layout matching DD/MM/YYYY
const TravelDateLayout = "02/01/2006"

// TravelDateValidator validates DD/MM/YYYY travel dates.
//
// Day values are only checked against 1..31; there is no per-month or
// leap-year arithmetic, so 31/02/2027 is accepted as long as it is not in
// the past.
type TravelDateValidator struct {
	minYear int
	now     func() time.Time
}

// NewTravelDateValidator creates a validator with the given minimum year
// and clock. A nil clock uses time.Now.
func NewTravelDateValidator(minYear int, now func() time.Time) *TravelDateValidator {
	if minYear <= 0 {
		minYear = DefaultMinYear
	}
	if now == nil {
		now = time.Now
	}
	return &TravelDateValidator{minYear: minYear, now: now}
}

// IsValidFutureDate reports whether s is a valid travel date that is not in the past
func (v *TravelDateValidator) IsValidFutureDate(s string) bool {
	return v.Validate(s) == nil
}

// Validate returns nil when s is acceptable, or one of the ErrDate* errors
func (v *TravelDateValidator) Validate(s string) error {
	if len(s) != 10 || s[2] != '/' || s[5] != '/' {
		return ErrDateFormat
	}
	for i := 0; i < len(s); i++ {
		if i == 2 || i == 5 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return ErrDateFormat
		}
	}

	day := digits(s[0:2])
	month := digits(s[3:5])
	year := digits(s[6:10])

	if day < 1 || day > 31 || month < 1 || month > 12 || year < v.minYear {
		return ErrDateRange
	}

	// Compare year, then month, then day against the local calendar date
	now := v.now()
	currentYear, currentMonth, currentDay := now.Date()

	if year != currentYear {
		if year < currentYear {
			return ErrDateInPast
		}
		return nil
	}
	if month != int(currentMonth) {
		if month < int(currentMonth) {
			return ErrDateInPast
		}
		return nil
	}
	if day < currentDay {
		return ErrDateInPast
	}

	return nil
}

func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
