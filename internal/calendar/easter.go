package calendar

import "time"

// OrthodoxEaster returns the Gregorian calendar date of Orthodox Easter for
// the given year. The Julian-calendar computation is the Meeus algorithm;
// the fixed 13-day Julian-to-Gregorian offset holds for years 1900-2099,
// which bounds the validity of this function.
func OrthodoxEaster(year int) time.Time {
	a := year % 4
	b := year % 7
	c := year % 19
	d := (19*c + 15) % 30
	e := (2*a + 4*b - d + 34) % 7
	month := (d + e + 114) / 31
	day := (d+e+114)%31 + 1

	// time.Date normalizes day+13 past the end of the month.
	return time.Date(year, time.Month(month), day+13, 0, 0, 0, 0, time.UTC)
}
