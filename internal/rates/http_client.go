package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ratesync/internal/config"
	rserrors "ratesync/internal/errors"
	"ratesync/internal/logging"
	"ratesync/internal/models"
)

// HTTPProvider implements Provider against a simple-price HTTP endpoint:
// GET {base}/prices?symbols=BTC,EGLD&currency=EUR returning a JSON object
// mapping symbol to numeric price.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPProvider creates a provider client from configuration.
func NewHTTPProvider(cfg config.ProviderConfig, logger zerolog.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchSnapshot requests prices for all symbols in one bounded call. Any
// missing symbol or malformed price fails the whole snapshot; partial data
// is never accepted.
func (p *HTTPProvider) FetchSnapshot(ctx context.Context, symbols []string, currency string) (*models.Snapshot, error) {
	if p.baseURL == "" {
		return nil, rserrors.NewFetchError("provider base URL not configured", rserrors.ErrMissingEndpoint)
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	q.Set("currency", currency)
	endpoint := p.baseURL + "/prices?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, rserrors.NewFetchError("building provider request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	logging.LogAPICall(p.logger, http.MethodGet, endpoint, time.Since(start), err)
	if err != nil {
		return nil, rserrors.NewFetchError("provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, rserrors.NewFetchError(
			fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, rserrors.NewFetchError("decoding provider response", err)
	}

	snapshot := &models.Snapshot{
		Currency: currency,
		Prices:   make(map[string]float64, len(symbols)),
		At:       time.Now(),
	}
	for _, symbol := range symbols {
		value, ok := raw[symbol]
		if !ok {
			return nil, rserrors.NewMissingSymbolError(symbol, "price missing from provider response")
		}
		price, ok := value.(float64)
		if !ok {
			return nil, rserrors.NewMissingSymbolError(symbol, fmt.Sprintf("price is not a number: %v", value))
		}
		snapshot.Prices[symbol] = price
	}

	return snapshot, nil
}
