// Package rates provides the pricing-provider boundary: a snapshot of
// current prices for a set of symbols in one conversion currency.
package rates

import (
	"context"

	"ratesync/internal/models"
)

// Provider fetches the current price per symbol in the requested currency.
// Implementations must fail distinctly for transport errors versus
// well-formed responses that are missing requested data.
type Provider interface {
	FetchSnapshot(ctx context.Context, symbols []string, currency string) (*models.Snapshot, error)
}
