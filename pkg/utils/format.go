// Package utils provides shared utility functions.
package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecimalPlaces is the fixed fractional precision of stored numeric fields.
const DecimalPlaces = 6

// DateLayout is the ISO layout of stored date fields.
const DateLayout = "2006-01-02"

// FormatValue renders a price as a decimal string with exactly six
// fractional digits, the representation the record store expects.
func FormatValue(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(DecimalPlaces)
}

// ParseValue parses a stored decimal string back into a float64.
func ParseValue(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// FormatDate renders a civil date as an ISO YYYY-MM-DD string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
