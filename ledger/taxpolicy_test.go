package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mow/finance-engine/ledger"
	"github.com/mow/finance-engine/ledger/store"
)

func TestTaxPolicy_RatesAt_PicksGreatestEffectiveAtOrBefore(t *testing.T) {
	// GIVEN: Configs effective Jan 1 and Mar 1
	// WHEN: Looking up rates on Feb 15
	// THEN: The Jan 1 config applies (greatest effective-from <= lookup)

	mem := store.NewMemory()
	tp := ledger.NewTaxPolicy(mem)
	ctx := context.Background()

	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.AppendTaxRates(ctx, ledger.TaxRateConfig{
		ID: "jan", VATRate: dec("0.10"), IncomeTaxRate: dec("0.20"), EffectiveFrom: jan1,
	}))
	require.NoError(t, mem.AppendTaxRates(ctx, ledger.TaxRateConfig{
		ID: "mar", VATRate: dec("0.25"), IncomeTaxRate: dec("0.30"), EffectiveFrom: mar1,
	}))

	cfg, err := tp.RatesAt(ctx, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "jan", cfg.ID)

	// Exactly at the boundary the new config is already in force.
	cfg, err = tp.RatesAt(ctx, mar1)
	require.NoError(t, err)
	assert.Equal(t, "mar", cfg.ID)

	cfg, err = tp.RatesAt(ctx, mar1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "mar", cfg.ID)
}

func TestTaxPolicy_RatesAt_EqualEffectiveFrom_LatestAppendedWins(t *testing.T) {
	// GIVEN: Two configs appended with the same effective-from
	// WHEN: Looking up rates at that instant
	// THEN: The later-appended config wins (insertion order breaks ties,
	//       the same contract the durable store honors)

	mem := store.NewMemory()
	tp := ledger.NewTaxPolicy(mem)
	ctx := context.Background()

	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.AppendTaxRates(ctx, ledger.TaxRateConfig{
		ID: "first", VATRate: dec("0.10"), IncomeTaxRate: dec("0.20"), EffectiveFrom: jan1,
	}))
	require.NoError(t, mem.AppendTaxRates(ctx, ledger.TaxRateConfig{
		ID: "second", VATRate: dec("0.12"), IncomeTaxRate: dec("0.22"), EffectiveFrom: jan1,
	}))

	cfg, err := tp.RatesAt(ctx, jan1)
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.ID)
	assert.True(t, cfg.VATRate.Equal(dec("0.12")))
}

func TestTaxPolicy_RatesAt_NoConfigBeforeTimestamp(t *testing.T) {
	// An unseeded store has no config; lookup before the first config
	// fails with NoTaxConfigError.

	mem := store.NewMemory()
	tp := ledger.NewTaxPolicy(mem)
	ctx := context.Background()

	_, err := tp.RatesAt(ctx, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNoTaxConfig)

	var noCfg *ledger.NoTaxConfigError
	assert.ErrorAs(t, err, &noCfg)
}

func TestTaxPolicy_SeededStore_AlwaysResolves(t *testing.T) {
	// The seeded zero-rate config is effective from the epoch, so any
	// realistic timestamp resolves.

	mem := store.NewSeededMemory()
	tp := ledger.NewTaxPolicy(mem)

	cfg, err := tp.RatesAt(context.Background(), time.Date(1980, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, cfg.VATRate.IsZero())
	assert.True(t, cfg.IncomeTaxRate.IsZero())
}

func TestTaxPolicy_Current_UsesLatestConfig(t *testing.T) {
	mem := store.NewSeededMemory()
	tp := ledger.NewTaxPolicy(mem)
	ctx := context.Background()

	require.NoError(t, mem.AppendTaxRates(ctx, ledger.TaxRateConfig{
		ID: "now", VATRate: dec("0.15"), IncomeTaxRate: dec("0.25"),
		EffectiveFrom: time.Now().UTC().Add(-time.Minute),
	}))

	cfg, err := tp.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "now", cfg.ID)
}
