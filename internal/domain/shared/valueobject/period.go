package valueobject

import (
	"regexp"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Period is a YYYY-MM calendar month
type Period string

// ParsePeriod validates a YYYY-MM string
func ParsePeriod(s string) (Period, error) {
	if !periodPattern.MatchString(s) {
		return "", shared.NewValidationError("period", "Period must be in YYYY-MM format")
	}
	return Period(s), nil
}

// PeriodOf returns the month containing t
func PeriodOf(t time.Time) Period {
	return Period(t.Format("2006-01"))
}

// Bounds returns [start, end) of the period in the given location
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	start, _ := time.ParseInLocation("2006-01", string(p), loc)
	return start, start.AddDate(0, 1, 0)
}

// IsFuture reports whether the period starts after the month containing now
func (p Period) IsFuture(now time.Time) bool {
	start, _ := p.Bounds(now.Location())
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start.After(current)
}

// Day returns the given day of the period, clamped to the last day of the month
func (p Period) Day(day int, loc *time.Location) time.Time {
	start, end := p.Bounds(loc)
	last := end.AddDate(0, 0, -1).Day()
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return start.AddDate(0, 0, day-1)
}
