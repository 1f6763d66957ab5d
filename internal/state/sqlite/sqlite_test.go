package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rserrors "ratesync/internal/errors"
	"ratesync/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"), "shop-1")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteAndReadFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	writes := []models.FieldWrite{
		{Namespace: "rates", Key: "btc_price", Type: models.FieldTypeNumber, Value: "50000.000000"},
		{Namespace: "rates", Key: "btc_price_updated", Type: models.FieldTypeDate, Value: "2024-07-09"},
	}
	require.NoError(t, store.WriteFields(ctx, writes))

	values, err := store.ReadFields(ctx, "rates", []string{"btc_price", "btc_price_updated", "egld_price"})
	require.NoError(t, err)

	assert.Equal(t, "50000.000000", values["btc_price"])
	assert.Equal(t, "2024-07-09", values["btc_price_updated"])
	_, present := values["egld_price"]
	assert.False(t, present, "absent keys must be omitted, not zero-valued")
}

func TestWriteFields_UpsertReplacesValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []models.FieldWrite{{Namespace: "rates", Key: "btc_price", Type: models.FieldTypeNumber, Value: "50000.000000"}}
	require.NoError(t, store.WriteFields(ctx, first))

	second := []models.FieldWrite{{Namespace: "rates", Key: "btc_price", Type: models.FieldTypeNumber, Value: "51000.500000"}}
	require.NoError(t, store.WriteFields(ctx, second))

	values, err := store.ReadFields(ctx, "rates", []string{"btc_price"})
	require.NoError(t, err)
	assert.Equal(t, "51000.500000", values["btc_price"])
}

func TestReadFields_NamespaceIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	writes := []models.FieldWrite{{Namespace: "rates", Key: "btc_price", Type: models.FieldTypeNumber, Value: "1.000000"}}
	require.NoError(t, store.WriteFields(ctx, writes))

	values, err := store.ReadFields(ctx, "other", []string{"btc_price"})
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestReadFields_EmptyKeys(t *testing.T) {
	store := newTestStore(t)

	values, err := store.ReadFields(context.Background(), "rates", nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestWriteFields_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.WriteFields(context.Background(), nil))
}

func TestNewStore_RequiresOwner(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "test.db"), "")

	var cfgErr *rserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "store.owner", cfgErr.Field)
}
