// Package calendar decides whether a civil date is a trading day for a
// region. Two policies satisfy the same contract: AlwaysOpen for
// continuously open markets and WeekdayHolidayGated for markets that close
// on weekends and regional holidays.
package calendar

import (
	"time"

	"ratesync/internal/models"
)

// DateFormat is the civil-date layout used throughout the holiday set.
const DateFormat = "2006-01-02"

// Evaluation is the outcome of a trading-day check.
type Evaluation struct {
	TradingDay bool
	Kind       models.SkipKind
	Reason     string
}

// TradingPolicy reports whether a civil date is a trading day.
type TradingPolicy interface {
	Evaluate(date time.Time) Evaluation
}

// AlwaysOpen treats every date as a trading day.
type AlwaysOpen struct{}

// Evaluate always reports a trading day.
func (AlwaysOpen) Evaluate(time.Time) Evaluation {
	return Evaluation{TradingDay: true}
}

// WeekdayHolidayGated reports weekends and Romanian legal holidays as
// non-trading days.
type WeekdayHolidayGated struct{}

// Evaluate classifies the date. Holidays take precedence over weekends so
// the reported reason names the holiday.
func (WeekdayHolidayGated) Evaluate(date time.Time) Evaluation {
	holidays := RomanianHolidays(date.Year())
	if name, ok := holidays[date.Format(DateFormat)]; ok {
		return Evaluation{Kind: models.SkipHoliday, Reason: name}
	}
	if isoWeekday(date) >= 6 {
		return Evaluation{Kind: models.SkipWeekend, Reason: "weekend"}
	}
	return Evaluation{TradingDay: true}
}

// PolicyFor returns the trading policy for a gating mode.
func PolicyFor(mode models.GatingMode) TradingPolicy {
	if mode == models.GatingAlwaysOpen {
		return AlwaysOpen{}
	}
	return WeekdayHolidayGated{}
}

// RomanianHolidays builds the holiday set for one year: the fixed legal
// holidays plus the moving cluster anchored to Orthodox Easter. The set is
// rebuilt on every call; recomputation is cheap and deterministic.
func RomanianHolidays(year int) map[string]string {
	set := make(map[string]string, 15)

	fixed := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "New Year's Day"},
		{time.January, 2, "Day after New Year"},
		{time.January, 24, "Union Day"},
		{time.May, 1, "Labour Day"},
		{time.June, 1, "Children's Day"},
		{time.August, 15, "Dormition of the Theotokos"},
		{time.November, 30, "St. Andrew's Day"},
		{time.December, 1, "National Day"},
		{time.December, 25, "Christmas Day"},
		{time.December, 26, "Second Day of Christmas"},
	}
	for _, h := range fixed {
		set[time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC).Format(DateFormat)] = h.name
	}

	easter := OrthodoxEaster(year)
	moving := []struct {
		offset int
		name   string
	}{
		{-2, "Good Friday"},
		{0, "Orthodox Easter"},
		{1, "Easter Monday"},
		{49, "Pentecost"},
		{50, "Whit Monday"},
	}
	for _, h := range moving {
		set[easter.AddDate(0, 0, h.offset).Format(DateFormat)] = h.name
	}

	return set
}

// CivilDate resolves the civil date of an instant in the given location,
// independent of the process's own timezone.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today resolves the current civil date in the given location.
func Today(loc *time.Location) time.Time {
	return CivilDate(time.Now(), loc)
}

// isoWeekday maps time.Weekday to the ISO convention, Monday=1 ... Sunday=7.
func isoWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
