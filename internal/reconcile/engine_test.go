package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesync/internal/config"
	rserrors "ratesync/internal/errors"
	"ratesync/internal/models"
)

type fakeProvider struct {
	prices  map[string]float64
	err     error
	calls   int
	block   chan struct{}
	started chan struct{}
}

func (f *fakeProvider) FetchSnapshot(ctx context.Context, symbols []string, currency string) (*models.Snapshot, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Snapshot{
		Currency: currency,
		Prices:   f.prices,
		At:       time.Now(),
	}, nil
}

type fakeStore struct {
	values   map[string]string
	readErr  error
	writeErr error
	reads    int
	batches  [][]models.FieldWrite
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) ReadFields(ctx context.Context, namespace string, keys []string) (map[string]string, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (f *fakeStore) WriteFields(ctx context.Context, writes []models.FieldWrite) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.batches = append(f.batches, writes)
	for _, w := range writes {
		f.values[w.Key] = w.Value
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Tracking: config.TrackingConfig{
			Symbols:   []string{"BTC", "EGLD"},
			Currency:  "EUR",
			Epsilon:   models.DefaultEpsilon,
			Namespace: "rates",
		},
		Calendar: config.CalendarConfig{
			Mode:     string(models.GatingCalendar),
			Timezone: "Europe/Bucharest",
		},
		Provider: config.ProviderConfig{BaseURL: "http://provider.test"},
		Store:    config.StoreConfig{Backend: "sqlite", Owner: "shop-1"},
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, provider *fakeProvider, store *fakeStore, instant time.Time) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, provider, store, zerolog.Nop())
	require.NoError(t, err)
	engine.now = func() time.Time { return instant }
	return engine
}

// 2024-07-09 12:00 Bucharest is a plain Tuesday, nowhere near a holiday.
var tradingTuesday = time.Date(2024, time.July, 9, 12, 0, 0, 0, time.UTC)

func TestRun_DeltaBelowEpsilonStagesNothing(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.0000005, "EGLD": 30.0}}
	store := newFakeStore()
	store.values["btc_price"] = "50000.000000"
	store.values["egld_price"] = "30.000000"

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Executed)
	assert.False(t, result.Wrote)
	assert.Empty(t, store.batches)
}

func TestRun_DeltaAtEpsilonStagesValueAndDateForThatSymbolOnly(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.000002, "EGLD": 30.0}}
	store := newFakeStore()
	store.values["btc_price"] = "50000.000000"
	store.values["egld_price"] = "30.000000"

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Wrote)
	require.Len(t, store.batches, 1)
	batch := store.batches[0]
	require.Len(t, batch, 2)

	assert.Equal(t, "btc_price", batch[0].Key)
	assert.Equal(t, models.FieldTypeNumber, batch[0].Type)
	assert.Equal(t, "50000.000002", batch[0].Value)

	assert.Equal(t, "btc_price_updated", batch[1].Key)
	assert.Equal(t, models.FieldTypeDate, batch[1].Type)
	assert.Equal(t, "2024-07-09", batch[1].Value)

	for _, w := range batch {
		assert.Equal(t, "rates", w.Namespace)
	}
}

func TestRun_AbsentStoredValueAlwaysWrites(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.0, "EGLD": 30.0}}
	store := newFakeStore()

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Wrote)
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 4)

	for _, q := range result.Quantities {
		assert.Nil(t, q.Stored)
		assert.Nil(t, q.StoredDate)
	}
}

func TestRun_QuantitiesEvaluatedIndependently(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.5, "EGLD": 31.5}}
	store := newFakeStore()
	store.values["btc_price"] = "50000.000000"
	store.values["egld_price"] = "30.000000"

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Wrote)
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 4)
}

func TestRun_SecondRunWithUnchangedSnapshotIsIdempotent(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.0, "EGLD": 30.0}}
	store := newFakeStore()

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)

	first, err := engine.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, first.Wrote)

	second, err := engine.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, second.Executed)
	assert.False(t, second.Wrote)
	assert.Len(t, store.batches, 1)
}

func TestRun_SkippedOnHolidayMakesNoNetworkCalls(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	store := newFakeStore()

	// 2024-01-01 is a Monday and New Year's Day.
	newYear := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, testConfig(), provider, store, newYear)

	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, result.Executed)
	assert.Equal(t, models.SkipHoliday, result.SkipKind)
	assert.Equal(t, "New Year's Day", result.SkipReason)
	assert.Zero(t, provider.calls)
	assert.Zero(t, store.reads)
}

func TestRun_SkippedOnWeekend(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	store := newFakeStore()

	saturday := time.Date(2024, time.July, 6, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, testConfig(), provider, store, saturday)

	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, models.SkipWeekend, result.SkipKind)
	assert.Equal(t, "weekend", result.SkipReason)
	assert.Zero(t, provider.calls)
}

func TestRun_ForceExecutesOnHoliday(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.0, "EGLD": 30.0}}
	store := newFakeStore()

	newYear := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, testConfig(), provider, store, newYear)

	result, err := engine.Run(context.Background(), true)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.True(t, result.Executed)
	assert.True(t, result.Wrote)
	assert.Equal(t, 1, provider.calls)
}

func TestRun_AlwaysOpenModeNeverSkips(t *testing.T) {
	cfg := testConfig()
	cfg.Calendar.Mode = string(models.GatingAlwaysOpen)

	provider := &fakeProvider{prices: map[string]float64{"BTC": 50000.0, "EGLD": 30.0}}
	store := newFakeStore()

	saturday := time.Date(2024, time.July, 6, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, cfg, provider, store, saturday)

	result, err := engine.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, result.Executed)
	assert.False(t, result.Skipped)
}

func TestRun_MissingSymbolAbortsWithoutWrites(t *testing.T) {
	provider := &fakeProvider{err: rserrors.NewMissingSymbolError("EGLD", "price missing from provider response")}
	store := newFakeStore()

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	assert.Nil(t, result)
	var fetchErr *rserrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "EGLD", fetchErr.Symbol)
	assert.ErrorIs(t, err, rserrors.ErrSymbolNotFound)
	assert.Empty(t, store.batches)
}

func TestRun_StateReadErrorAbortsBeforeWrite(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	store := newFakeStore()
	store.readErr = rserrors.NewStateReadError("", assert.AnError)

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	assert.Nil(t, result)
	var readErr *rserrors.StateReadError
	assert.ErrorAs(t, err, &readErr)
	assert.Empty(t, store.batches)
}

func TestRun_PartialBatchFailureSurfacesPerItemDetail(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	store := newFakeStore()
	store.writeErr = rserrors.NewPersistItemsError([]rserrors.ItemError{
		{Key: "btc_price", Message: "value rejected"},
	})

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	assert.Nil(t, result)
	var persistErr *rserrors.PersistError
	require.ErrorAs(t, err, &persistErr)
	require.Len(t, persistErr.Items, 1)
	assert.Equal(t, "btc_price", persistErr.Items[0].Key)
	assert.Contains(t, err.Error(), "value rejected")
}

func TestRun_MissingProviderURLFailsBeforeAnyNetworkCall(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.BaseURL = ""

	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	store := newFakeStore()

	engine := newTestEngine(t, cfg, provider, store, tradingTuesday)
	result, err := engine.Run(context.Background(), false)

	assert.Nil(t, result)
	var cfgErr *rserrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, provider.calls)
	assert.Zero(t, store.reads)
}

func TestRun_RemoteBackendRequiresOwner(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "remote"
	cfg.Store.BaseURL = "http://store.test"
	cfg.Store.Owner = ""

	provider := &fakeProvider{prices: map[string]float64{"BTC": 1, "EGLD": 1}}
	engine := newTestEngine(t, cfg, provider, newFakeStore(), tradingTuesday)

	_, err := engine.Run(context.Background(), false)

	var cfgErr *rserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "store.owner", cfgErr.Field)
}

func TestRun_OverlappingRunRejected(t *testing.T) {
	provider := &fakeProvider{
		prices:  map[string]float64{"BTC": 1, "EGLD": 1},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	store := newFakeStore()
	started := provider.started

	engine := newTestEngine(t, testConfig(), provider, store, tradingTuesday)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Run(context.Background(), false)
	}()

	// Wait for the first run to take the guard and block in the fetch.
	<-started

	_, err := engine.Run(context.Background(), false)
	assert.ErrorIs(t, err, rserrors.ErrRunInFlight)

	close(provider.block)
	<-done
}

func TestKeyNaming(t *testing.T) {
	assert.Equal(t, "btc_price", ValueKey("BTC"))
	assert.Equal(t, "egld_price_updated", DateKey("EGLD"))
}
