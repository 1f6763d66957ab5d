// Package remote implements the stored-state boundary against an HTTP
// record store. Fields live under a namespace/key pair scoped to one owner
// identity; writes are applied as a single batch with per-item results.
package remote

import (
	"bytes"
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

// Client talks to the remote record store.
type Client struct {
	baseURL string
	owner   string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a record-store client from configuration.
func NewClient(cfg config.StoreConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, rserrors.NewConfigError("store.base_url", "record store URL not configured")
	}
	if cfg.Owner == "" {
		return nil, rserrors.NewConfigError("store.owner", rserrors.ErrMissingOwner.Error())
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		owner:   cfg.Owner,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type fieldPayload struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type readResponse struct {
	Fields []fieldPayload `json:"fields"`
}

type writeRequest struct {
	Fields []fieldPayload `json:"fields"`
}

type writeResult struct {
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type writeResponse struct {
	Results []writeResult `json:"results"`
}

// ReadFields fetches the requested keys in one batched call. Keys the store
// does not hold are omitted from the result.
func (c *Client) ReadFields(ctx context.Context, namespace string, keys []string) (map[string]string, error) {
	q := url.Values{}
	q.Set("namespace", namespace)
	q.Set("keys", strings.Join(keys, ","))
	endpoint := fmt.Sprintf("%s/owners/%s/fields?%s", c.baseURL, url.PathEscape(c.owner), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, rserrors.NewStateReadError("", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	logging.LogAPICall(c.logger, http.MethodGet, endpoint, time.Since(start), err)
	if err != nil {
		return nil, rserrors.NewStateReadError("", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, rserrors.NewStateReadError("", fmt.Errorf("record store returned status %d", resp.StatusCode))
	}

	var body readResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, rserrors.NewStateReadError("", err)
	}

	values := make(map[string]string, len(body.Fields))
	for _, f := range body.Fields {
		if f.Namespace == namespace {
			values[f.Key] = f.Value
		}
	}
	return values, nil
}

// WriteFields applies the staged writes as one batch. Any per-item error in
// the store's response surfaces as a PersistError carrying every rejected
// item.
func (c *Client) WriteFields(ctx context.Context, writes []models.FieldWrite) error {
	if len(writes) == 0 {
		return nil
	}

	payload := writeRequest{Fields: make([]fieldPayload, len(writes))}
	for i, w := range writes {
		payload.Fields[i] = fieldPayload{
			Namespace: w.Namespace,
			Key:       w.Key,
			Type:      string(w.Type),
			Value:     w.Value,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return rserrors.NewPersistError(err)
	}

	endpoint := fmt.Sprintf("%s/owners/%s/fields/batch", c.baseURL, url.PathEscape(c.owner))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return rserrors.NewPersistError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	logging.LogAPICall(c.logger, http.MethodPost, endpoint, time.Since(start), err)
	if err != nil {
		return rserrors.NewPersistError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return rserrors.NewPersistError(
			fmt.Errorf("record store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var result writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return rserrors.NewPersistError(err)
	}

	var items []rserrors.ItemError
	for _, r := range result.Results {
		if !r.OK {
			items = append(items, rserrors.ItemError{Key: r.Key, Message: r.Error})
		}
	}
	if len(items) > 0 {
		return rserrors.NewPersistItemsError(items)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
