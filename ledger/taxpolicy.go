package ledger

import (
	"context"
	"time"
)

// =============================================================================
// TAX POLICY - Effective-dated rate lookup
// =============================================================================

// TaxPolicy resolves which rates were in force at a given instant: the
// config with the greatest EffectiveFrom that is <= the timestamp. Pure
// lookup, no mutation. New configs are appended through the engine; prior
// ones are never touched, which is what keeps past statements reproducible.
type TaxPolicy struct {
	store Store
}

func NewTaxPolicy(store Store) *TaxPolicy {
	return &TaxPolicy{store: store}
}

// RatesAt returns the config effective at the given timestamp. Returns
// NoTaxConfigError when no config precedes it; stores seed zero rates at
// initialization so this is total in practice.
func (tp *TaxPolicy) RatesAt(ctx context.Context, at time.Time) (TaxRateConfig, error) {
	return tp.store.TaxRatesAt(ctx, at)
}

// Current returns the config in force right now.
func (tp *TaxPolicy) Current(ctx context.Context) (TaxRateConfig, error) {
	return tp.store.TaxRatesAt(ctx, time.Now().UTC())
}
