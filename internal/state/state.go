// Package state defines the stored-state boundary: reading previously
// persisted field values and durably applying batches of field writes,
// keyed by namespace and field key under one owner identity.
package state

import (
	"context"

	"ratesync/internal/models"
)

// Reader returns the current string value per key for one namespace.
// Absent keys are simply omitted from the result map.
type Reader interface {
	ReadFields(ctx context.Context, namespace string, keys []string) (map[string]string, error)
}

// Writer applies a batch of field writes as one unit. Per-item rejections
// must be reported, never silently dropped.
type Writer interface {
	WriteFields(ctx context.Context, writes []models.FieldWrite) error
}

// Store combines the read and write sides of the boundary.
type Store interface {
	Reader
	Writer
}
