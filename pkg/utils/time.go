package utils

import (
	"time"
)

// GetDayStart returns the start of the current day (00:00:00 UTC).
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom returns the start of the day containing t, in UTC.
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetWeekStart returns the start of the current ISO week (Monday 00:00:00 UTC).
func GetWeekStart() time.Time {
	return GetWeekStartFrom(time.Now().UTC())
}

// GetWeekStartFrom returns the Monday 00:00:00 UTC of the ISO week containing t.
func GetWeekStartFrom(t time.Time) time.Time {
	t = t.UTC()

	weekday := int(t.Weekday()) // 0=Sunday
	if weekday == 0 {
		weekday = 7
	}
	daysBack := weekday - 1

	monday := t.AddDate(0, 0, -daysBack)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// GetMonthStart returns the start of the current month (1st 00:00:00 UTC).
func GetMonthStart() time.Time {
	return GetMonthStartFrom(time.Now().UTC())
}

// GetMonthStartFrom returns the 1st 00:00:00 UTC of the month containing t.
func GetMonthStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// GetYearStart returns the start of the current year (Jan 1 00:00:00 UTC).
func GetYearStart() time.Time {
	return GetYearStartFrom(time.Now().UTC())
}

// GetYearStartFrom returns the Jan 1 00:00:00 UTC of the year containing t.
func GetYearStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// PeriodType names a stats aggregation window.
type PeriodType string

const (
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
	PeriodYear  PeriodType = "year"
	PeriodAll   PeriodType = "all"
)

// GetPeriodStart returns the boundary a query should filter "since" for the
// given period. PeriodAll returns the zero time, which is earlier than any
// recorded row.
func GetPeriodStart(period PeriodType) time.Time {
	switch period {
	case PeriodDay:
		return GetDayStart()
	case PeriodWeek:
		return GetWeekStart()
	case PeriodMonth:
		return GetMonthStart()
	case PeriodYear:
		return GetYearStart()
	case PeriodAll:
		return time.Time{}
	default:
		return GetDayStart()
	}
}
