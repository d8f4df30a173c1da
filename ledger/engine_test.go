package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mow/finance-engine/ledger"
	"github.com/mow/finance-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// captureSink records emitted invoices instead of writing files.
type captureSink struct {
	invoices []ledger.Invoice
	fail     bool
}

func (c *captureSink) Emit(_ context.Context, inv ledger.Invoice) error {
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.invoices = append(c.invoices, inv)
	return nil
}

func newTestEngine(t *testing.T) (*ledger.Engine, *store.TxMemory, *captureSink) {
	t.Helper()
	mem := store.NewSeededTxMemory()
	sink := &captureSink{}
	return ledger.NewEngine(mem, sink, nil), mem, sink
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addWidget(t *testing.T, e *ledger.Engine, stock int64) ledger.Product {
	t.Helper()
	p, err := e.AddProduct(context.Background(), ledger.NewProduct{
		Code:         "WID-1",
		Name:         "Widget",
		Cost:         dec("10"),
		Price:        dec("20"),
		InitialStock: stock,
		ReorderLevel: 2,
	})
	require.NoError(t, err)
	return p
}

// =============================================================================
// PRODUCT ENTRY TESTS
// =============================================================================

func TestEngine_AddProduct_LogsInitialStockAsPurchase(t *testing.T) {
	// GIVEN: A new product with 5 units of initial stock
	// WHEN: The product is added
	// THEN: A purchase movement for 5 units at the entered cost exists,
	//       so the movement ledger fully explains stock on hand

	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	movements, err := mem.Movements(ctx, ledger.SinceEpoch(time.Now().UTC().Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.MovementPurchase, movements[0].Type)
	assert.Equal(t, int64(5), movements[0].Quantity)
	assert.True(t, movements[0].UnitCost.Equal(dec("10")))
}

func TestEngine_AddProduct_ZeroInitialStock_NoMovement(t *testing.T) {
	e, mem, _ := newTestEngine(t)

	addWidget(t, e, 0)

	movements, err := mem.Movements(context.Background(), ledger.SinceEpoch(time.Now().UTC().Add(time.Hour)))
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestEngine_AddProduct_Validation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name string
		np   ledger.NewProduct
	}{
		{"empty code", ledger.NewProduct{Name: "x", Cost: dec("1"), Price: dec("1")}},
		{"empty name", ledger.NewProduct{Code: "x", Cost: dec("1"), Price: dec("1")}},
		{"negative cost", ledger.NewProduct{Code: "x", Name: "x", Cost: dec("-1"), Price: dec("1")}},
		{"negative price", ledger.NewProduct{Code: "x", Name: "x", Cost: dec("1"), Price: dec("-1")}},
		{"negative stock", ledger.NewProduct{Code: "x", Name: "x", Cost: dec("1"), Price: dec("1"), InitialStock: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.AddProduct(ctx, tc.np)
			assert.ErrorIs(t, err, ledger.ErrValidation)
		})
	}
}

func TestEngine_ArchivedProduct_RefusesPostings(t *testing.T) {
	// GIVEN: An archived product with stock remaining
	// WHEN: Posting a purchase or a sale against it
	// THEN: Both are refused; the historical records stay queryable

	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)
	require.NoError(t, e.ArchiveProduct(ctx, "WID-1"))

	_, err := e.PostPurchase(ctx, "WID-1", 1, dec("10"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrProductArchived)

	_, err = e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 1})
	assert.ErrorIs(t, err, ledger.ErrProductArchived)
}

func TestEngine_UpdatePrice_ArchivedProductRefused(t *testing.T) {
	// GIVEN: An archived product
	// WHEN: Changing its sale price
	// THEN: Refused like any other posting; the stored price is unchanged

	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)
	require.NoError(t, e.ArchiveProduct(ctx, "WID-1"))

	_, err := e.UpdatePrice(ctx, "WID-1", dec("25"))
	assert.ErrorIs(t, err, ledger.ErrProductArchived)

	p, err := mem.Product(ctx, "WID-1")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(dec("20")), "price must be unchanged")
}

func TestEngine_UpdatePrice_PersistsNewPrice(t *testing.T) {
	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	p, err := e.UpdatePrice(ctx, "WID-1", dec("25"))
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(dec("25")))

	stored, err := mem.Product(ctx, "WID-1")
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(dec("25")))
}

// =============================================================================
// WEIGHTED-AVERAGE COST BASIS TESTS
// =============================================================================

func TestEngine_PostPurchase_WeightedAverageCost(t *testing.T) {
	// GIVEN: 5 units on hand at cost 10
	// WHEN: Buying 5 more at cost 20
	// THEN: Cost basis becomes (5*10 + 5*20) / 10 = 15

	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	p, err := e.PostPurchase(ctx, "WID-1", 5, dec("20"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Stock)
	assert.True(t, p.Cost.Equal(dec("15")), "cost basis should be 15, got %s", p.Cost)
}

func TestEngine_PostPurchase_IntoZeroStock(t *testing.T) {
	// A purchase into zero stock takes the purchase cost exactly; the
	// weighted average must not divide by zero or drag in the stale cost.

	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 0)

	p, err := e.PostPurchase(ctx, "WID-1", 4, dec("12.50"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Stock)
	assert.True(t, p.Cost.Equal(dec("12.50")))
}

func TestEngine_PostPurchase_Validation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	addWidget(t, e, 5)

	_, err := e.PostPurchase(ctx, "WID-1", 0, dec("10"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = e.PostPurchase(ctx, "WID-1", 1, dec("0"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = e.PostPurchase(ctx, "NOPE", 1, dec("10"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// ADJUSTMENT TESTS
// =============================================================================

func TestEngine_PostAdjustment_KeepsCostBasis(t *testing.T) {
	// GIVEN: 5 units at cost 10
	// WHEN: Writing off 2 units
	// THEN: Stock drops to 3, cost basis stays 10, no cash moves

	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	p, err := e.PostAdjustment(ctx, "WID-1", -2, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Stock)
	assert.True(t, p.Cost.Equal(dec("10")))

	movements, err := mem.Movements(ctx, ledger.SinceEpoch(time.Now().UTC().Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, movements, 2) // initial stock purchase + adjustment
	adj := movements[1]
	assert.Equal(t, ledger.MovementAdjustment, adj.Type)
	assert.True(t, adj.CashOutlay().IsZero(), "adjustments must not move cash")
}

func TestEngine_PostAdjustment_NegativeStockRejected(t *testing.T) {
	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	_, err := e.PostAdjustment(ctx, "WID-1", -6, time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)

	p, err := mem.Product(ctx, "WID-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Stock, "failed adjustment must leave stock unchanged")
}

// =============================================================================
// SALE TESTS
// =============================================================================

func TestEngine_PostSale_ReferenceScenario(t *testing.T) {
	// GIVEN: VAT 10%, income tax 20%; product cost 10, price 20, stock 5
	// WHEN: Selling 2 units
	// THEN: revenue 40, cogs 20, gross profit 20, VAT 4, income tax 4,
	//       stock 3

	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.UpdateTaxRates(ctx, dec("0.10"), dec("0.20"), time.Unix(1, 0))
	require.NoError(t, err)
	addWidget(t, e, 5)

	sale, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 2})
	require.NoError(t, err)

	assert.True(t, sale.Revenue.Equal(dec("40")), "revenue: %s", sale.Revenue)
	assert.True(t, sale.COGS.Equal(dec("20")), "cogs: %s", sale.COGS)
	assert.True(t, sale.GrossProfit.Equal(dec("20")), "gross profit: %s", sale.GrossProfit)
	assert.True(t, sale.VAT.Equal(dec("4")), "vat: %s", sale.VAT)
	assert.True(t, sale.IncomeTax.Equal(dec("4")), "income tax: %s", sale.IncomeTax)
	assert.True(t, sale.TotalWithVAT().Equal(dec("44")))

	p, err := mem.Product(ctx, "WID-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Stock)
}

func TestEngine_PostSale_InsufficientStock_NothingChanges(t *testing.T) {
	// GIVEN: 5 units on hand
	// WHEN: Trying to sell 6
	// THEN: InsufficientStockError; no sale record, stock unchanged

	e, mem, sink := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	_, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(6), stockErr.Requested)
	assert.Equal(t, int64(5), stockErr.Available)

	p, err := mem.Product(ctx, "WID-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Stock)

	sales, err := mem.RecentSales(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Empty(t, sink.invoices, "no invoice for a failed posting")
}

func TestEngine_PostSale_PriceOverride(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	override := dec("15")
	sale, err := e.PostSale(ctx, ledger.SaleOrder{
		ProductCode:   "WID-1",
		Quantity:      2,
		PriceOverride: &override,
	})
	require.NoError(t, err)
	assert.True(t, sale.UnitPrice.Equal(dec("15")))
	assert.True(t, sale.Revenue.Equal(dec("30")))
}

func TestEngine_PostSale_EmitsInvoice(t *testing.T) {
	// GIVEN: A wired invoice sink
	// WHEN: A sale posts
	// THEN: Exactly one invoice with the sale's frozen figures is emitted

	e, _, sink := newTestEngine(t)
	ctx := context.Background()

	addWidget(t, e, 5)

	sale, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, sink.invoices, 1)
	inv := sink.invoices[0]
	assert.Equal(t, sale.ID, inv.SaleID)
	assert.Equal(t, "Widget", inv.ProductName)
	assert.True(t, inv.Total.Equal(sale.TotalWithVAT()))
}

func TestEngine_PostSale_SinkFailureDoesNotRollBack(t *testing.T) {
	// Invoice emission is a side effect. A broken sink must not undo the
	// posted sale.

	e, mem, sink := newTestEngine(t)
	sink.fail = true
	ctx := context.Background()

	addWidget(t, e, 5)

	_, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 2})
	require.NoError(t, err)

	sales, err := mem.RecentSales(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestEngine_PostSale_LossMakingSale_ZeroIncomeTax(t *testing.T) {
	// GIVEN: Income tax 20%, cost 10, selling below cost at 8
	// WHEN: Selling 1 unit
	// THEN: Gross profit is -2 but income tax accrues at zero, not -0.4

	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.UpdateTaxRates(ctx, dec("0.10"), dec("0.20"), time.Unix(1, 0))
	require.NoError(t, err)
	addWidget(t, e, 5)

	override := dec("8")
	sale, err := e.PostSale(ctx, ledger.SaleOrder{
		ProductCode:   "WID-1",
		Quantity:      1,
		PriceOverride: &override,
	})
	require.NoError(t, err)
	assert.True(t, sale.GrossProfit.Equal(dec("-2")))
	assert.True(t, sale.IncomeTax.IsZero())
}

// =============================================================================
// TAX RATE IMMUTABILITY TESTS
// =============================================================================

func TestEngine_RateChange_DoesNotRestatePostedSales(t *testing.T) {
	// GIVEN: A sale posted under VAT 10%
	// WHEN: VAT is later raised to 25%
	// THEN: The posted sale's frozen VAT is unchanged; only new sales use
	//       the new rate

	e, mem, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.UpdateTaxRates(ctx, dec("0.10"), dec("0.20"), time.Unix(1, 0))
	require.NoError(t, err)
	addWidget(t, e, 5)

	first, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, first.VAT.Equal(dec("2")))

	_, err = e.UpdateTaxRates(ctx, dec("0.25"), dec("0.20"), time.Now().Add(-time.Minute))
	require.NoError(t, err)

	second, err := e.PostSale(ctx, ledger.SaleOrder{ProductCode: "WID-1", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, second.VAT.Equal(dec("5")))

	sales, err := mem.RecentSales(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	for _, s := range sales {
		if s.ID == first.ID {
			assert.True(t, s.VAT.Equal(dec("2")), "stored first sale must keep its frozen VAT")
		}
	}
}

func TestEngine_UpdateTaxRates_RangeValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.UpdateTaxRates(ctx, dec("-0.1"), dec("0.2"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = e.UpdateTaxRates(ctx, dec("0.1"), dec("1.5"), time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
