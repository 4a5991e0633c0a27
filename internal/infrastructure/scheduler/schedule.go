package scheduler

import (
	"time"
)

// Schedule decides whether a job is due at now, given when it last ran
type Schedule interface {
	Due(now time.Time, lastRun time.Time) bool
	String() string
}

// Monthly fires once a month on Day at Hour:00 in the trigger's location
type Monthly struct {
	Day  int
	Hour int
}

// Due is true from the configured moment until the job has run for this month
func (m Monthly) Due(now, lastRun time.Time) bool {
	if now.Day() != m.Day || now.Hour() < m.Hour {
		return false
	}
	return lastRun.IsZero() || lastRun.Year() != now.Year() || lastRun.Month() != now.Month()
}

func (m Monthly) String() string {
	return "monthly"
}

// Every fires when Interval has elapsed since the last run
type Every struct {
	Interval time.Duration
}

// Due is true on the first check and then every Interval
func (e Every) Due(now, lastRun time.Time) bool {
	return lastRun.IsZero() || now.Sub(lastRun) >= e.Interval
}

func (e Every) String() string {
	return "every " + e.Interval.String()
}

// Daily fires once a day at Hour:00 in the trigger's location
type Daily struct {
	Hour int
}

// Due is true from Hour:00 until the job has run for the day
func (d Daily) Due(now, lastRun time.Time) bool {
	if now.Hour() < d.Hour {
		return false
	}
	return lastRun.IsZero() || lastRun.YearDay() != now.YearDay() || lastRun.Year() != now.Year()
}

func (d Daily) String() string {
	return "daily"
}
