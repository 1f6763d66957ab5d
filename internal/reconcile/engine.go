// Package reconcile implements the decision-and-reconciliation engine: one
// run gates on the trading calendar, fetches the current price snapshot,
// diffs it against stored state, and writes back only material changes.
package reconcile

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ratesync/internal/calendar"
	"ratesync/internal/config"
	rserrors "ratesync/internal/errors"
	"ratesync/internal/models"
	"ratesync/internal/rates"
	"ratesync/internal/state"
	"ratesync/pkg/utils"
)

// Engine orchestrates one reconciliation run. All collaborators are
// injected; the engine itself holds no cross-run state beyond the
// single-flight guard.
type Engine struct {
	cfg      *config.Config
	location *time.Location
	policy   calendar.TradingPolicy
	provider rates.Provider
	store    state.Store
	logger   zerolog.Logger
	now      func() time.Time

	// Guards against overlapping runs issuing conflicting writes to the
	// same stored fields. Overlap is rejected, not queued.
	mu sync.Mutex
}

// NewEngine creates an engine from configuration and collaborators.
func NewEngine(cfg *config.Config, provider rates.Provider, store state.Store, logger zerolog.Logger) (*Engine, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, rserrors.NewConfigError("calendar.timezone", err.Error())
	}
	return &Engine{
		cfg:      cfg,
		location: location,
		policy:   calendar.PolicyFor(cfg.GatingMode()),
		provider: provider,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// ValueKey returns the record-store key holding a symbol's price.
func ValueKey(symbol string) string {
	return strings.ToLower(symbol) + "_price"
}

// DateKey returns the record-store key holding a symbol's last-update date.
func DateKey(symbol string) string {
	return strings.ToLower(symbol) + "_price_updated"
}

// Run executes one reconciliation attempt. A non-trading day short-circuits
// before any network call unless force is set. The returned RunResult is
// definite: either the run finished (executed or skipped) or an error from
// the taxonomy is returned; the engine never decides whether a failure is
// swallowed, that is the trigger surface's call.
func (e *Engine) Run(ctx context.Context, force bool) (*models.RunResult, error) {
	if !e.mu.TryLock() {
		return nil, rserrors.ErrRunInFlight
	}
	defer e.mu.Unlock()

	if err := e.preflight(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := e.logger.With().Str("run_id", runID).Logger()

	today := calendar.CivilDate(e.now(), e.location)
	result := &models.RunResult{
		RunID: runID,
		Date:  utils.FormatDate(today),
		At:    e.now(),
	}

	if !force {
		eval := e.policy.Evaluate(today)
		if !eval.TradingDay {
			result.Skipped = true
			result.SkipKind = eval.Kind
			result.SkipReason = eval.Reason
			logger.Info().
				Str("date", result.Date).
				Str("reason", eval.Reason).
				Msg("Non-trading day, run skipped")
			return result, nil
		}
	}

	snapshot, err := e.provider.FetchSnapshot(ctx, e.cfg.Tracking.Symbols, e.cfg.Tracking.Currency)
	if err != nil {
		return nil, err
	}

	quantities, err := e.readStored(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	result.Quantities = quantities

	writes := e.stageWrites(quantities, result.Date)
	if len(writes) > 0 {
		if err := e.store.WriteFields(ctx, writes); err != nil {
			return nil, err
		}
		result.Wrote = true
	}

	result.Executed = true
	logger.Info().
		Str("date", result.Date).
		Int("staged_writes", len(writes)).
		Bool("wrote", result.Wrote).
		Msg("Reconciliation run executed")
	return result, nil
}

// preflight rejects runs whose required inputs are absent, before any
// network interaction.
func (e *Engine) preflight() error {
	if e.cfg.Provider.BaseURL == "" {
		return rserrors.NewConfigError("provider.base_url", "pricing provider URL not configured")
	}
	if e.cfg.Store.Backend == "remote" {
		if e.cfg.Store.BaseURL == "" {
			return rserrors.NewConfigError("store.base_url", "record store URL not configured")
		}
		if e.cfg.Store.Owner == "" {
			return rserrors.NewConfigError("store.owner", rserrors.ErrMissingOwner.Error())
		}
	}
	return nil
}

// readStored pairs each fetched price with its stored value and date from
// one batched read.
func (e *Engine) readStored(ctx context.Context, snapshot *models.Snapshot) ([]models.TrackedQuantity, error) {
	keys := make([]string, 0, len(e.cfg.Tracking.Symbols)*2)
	for _, symbol := range e.cfg.Tracking.Symbols {
		keys = append(keys, ValueKey(symbol), DateKey(symbol))
	}

	stored, err := e.store.ReadFields(ctx, e.cfg.Tracking.Namespace, keys)
	if err != nil {
		return nil, err
	}

	quantities := make([]models.TrackedQuantity, 0, len(e.cfg.Tracking.Symbols))
	for _, symbol := range e.cfg.Tracking.Symbols {
		quantity := models.TrackedQuantity{
			Symbol:  symbol,
			Current: snapshot.Prices[symbol],
		}
		if raw, ok := stored[ValueKey(symbol)]; ok {
			value, err := utils.ParseValue(raw)
			if err != nil {
				return nil, rserrors.NewStateReadError(ValueKey(symbol), err)
			}
			quantity.Stored = &value
		}
		if date, ok := stored[DateKey(symbol)]; ok {
			quantity.StoredDate = &date
		}
		quantities = append(quantities, quantity)
	}
	return quantities, nil
}

// stageWrites produces the minimal write set: for every quantity that moved
// at or beyond epsilon, its value field and its companion date field.
// Quantities are evaluated independently of each other.
func (e *Engine) stageWrites(quantities []models.TrackedQuantity, date string) []models.FieldWrite {
	var writes []models.FieldWrite
	for _, q := range quantities {
		if !q.Changed(e.cfg.Tracking.Epsilon) {
			continue
		}
		writes = append(writes,
			models.FieldWrite{
				Namespace: e.cfg.Tracking.Namespace,
				Key:       ValueKey(q.Symbol),
				Type:      models.FieldTypeNumber,
				Value:     utils.FormatValue(q.Current),
			},
			models.FieldWrite{
				Namespace: e.cfg.Tracking.Namespace,
				Key:       DateKey(q.Symbol),
				Type:      models.FieldTypeDate,
				Value:     date,
			},
		)
	}
	return writes
}
