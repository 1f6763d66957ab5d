// Package models defines the core domain types for price reconciliation.
package models

import (
	"math"
	"time"
)

// DefaultEpsilon is the tolerance below which a price move is not material.
const DefaultEpsilon = 1e-6

// GatingMode selects how the calendar gate behaves for a run.
type GatingMode string

const (
	// GatingAlwaysOpen models a continuously open market; runs are never
	// skipped on calendar grounds.
	GatingAlwaysOpen GatingMode = "always_open"
	// GatingCalendar skips runs on weekends and regional holidays.
	GatingCalendar GatingMode = "calendar"
)

// SkipKind classifies why a run was skipped.
type SkipKind string

const (
	SkipWeekend SkipKind = "weekend"
	SkipHoliday SkipKind = "holiday"
)

// FieldType is the record-store type tag attached to a written field.
type FieldType string

const (
	FieldTypeNumber FieldType = "number_decimal"
	FieldTypeDate   FieldType = "date"
)

// TrackedQuantity is one monitored price metric: the fetched current value
// together with the previously stored value and its last-update date.
type TrackedQuantity struct {
	Symbol     string   `json:"symbol"`
	Current    float64  `json:"current"`
	Stored     *float64 `json:"stored,omitempty"`
	StoredDate *string  `json:"stored_date,omitempty"`
}

// Changed reports whether the quantity moved materially: no stored value,
// or an absolute delta at or above epsilon.
func (q TrackedQuantity) Changed(epsilon float64) bool {
	if q.Stored == nil {
		return true
	}
	return math.Abs(q.Current-*q.Stored) >= epsilon
}

// FieldWrite is one staged record-store update.
type FieldWrite struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Type      FieldType `json:"type"`
	Value     string    `json:"value"`
}

// Snapshot is the provider's price-per-symbol response for one currency.
type Snapshot struct {
	Currency string             `json:"currency"`
	Prices   map[string]float64 `json:"prices"`
	At       time.Time          `json:"at"`
}

// RunResult is the outcome of one reconciliation attempt. It is constructed
// once per run, never mutated afterwards, and returned to the trigger
// surface; the engine does not persist it.
type RunResult struct {
	RunID      string            `json:"run_id"`
	Executed   bool              `json:"executed"`
	Skipped    bool              `json:"skipped"`
	SkipKind   SkipKind          `json:"skip_kind,omitempty"`
	SkipReason string            `json:"skip_reason,omitempty"`
	Date       string            `json:"date"`
	Quantities []TrackedQuantity `json:"quantities,omitempty"`
	Wrote      bool              `json:"wrote"`
	At         time.Time         `json:"at"`
}
