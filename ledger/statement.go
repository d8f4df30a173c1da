/*
statement.go - Statement compiler: period aggregation over the ledger

PURPOSE:
  Derives the three financial statements from posted records. Pure reads:
  compiling a statement mutates nothing, and two compilations over the
  same store state yield identical results. Statements are never stored as
  authoritative state — they must always be reproducible from the Store.

ACCOUNTING CONVENTIONS:
  - VAT is a pass-through liability owed to the tax authority. It appears
    in cash figures (the buyer pays it) and in the tax-expense total, but
    it is NOT an expense against profit: netProfit = grossProfit - incomeTax.
  - Cash position is an accrual approximation: sales and purchases are
    recognized at posting time, and collected VAT is held as an unremitted
    liability (remittance to the authority is not separately tracked).
  - Inventory asset value uses each product's current weighted-average
    cost basis, matching how COGS was derived.

EDGE CASES:
  An empty period compiles to an all-zero statement, not an error. A
  period with purchases but no sales shows zero revenue and profit while
  the balance sheet still reflects the increased inventory value.
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATEMENT TYPES - Derived, never persisted
// =============================================================================

// ProfitAndLoss summarizes trading over a period.
type ProfitAndLoss struct {
	Period      Period
	Revenue     decimal.Decimal
	COGS        decimal.Decimal
	GrossProfit decimal.Decimal
	VAT         decimal.Decimal // collected, passed through
	IncomeTax   decimal.Decimal
	TaxExpense  decimal.Decimal // VAT + IncomeTax accrued in the period
	NetProfit   decimal.Decimal // GrossProfit - IncomeTax; VAT excluded
}

// BalanceSheet is the cumulative position as of an instant.
type BalanceSheet struct {
	AsOf           time.Time
	InventoryValue decimal.Decimal // sum of stock * current cost basis
	CashPosition   decimal.Decimal // cumulative (revenue + VAT) - purchase outlay
	TaxLiability   decimal.Decimal // accrued unremitted VAT + income tax
	TotalAssets    decimal.Decimal // CashPosition + InventoryValue
	Equity         decimal.Decimal // TotalAssets - TaxLiability
}

// CashFlow summarizes cash movement over a period.
type CashFlow struct {
	Period    Period
	CashIn    decimal.Decimal // sale revenue + VAT collected
	CashOut   decimal.Decimal // purchase outlay (adjustments move no cash)
	NetChange decimal.Decimal
}

// MonthlySummary is the combined view the report screens and the
// spreadsheet export are built from.
type MonthlySummary struct {
	Period         Period
	PnL            ProfitAndLoss
	Balance        BalanceSheet
	Cash           CashFlow
	PurchaseOutlay decimal.Decimal
}

// =============================================================================
// COMPILER
// =============================================================================

// Compiler aggregates posted records into statements. Read-only and
// idempotent by construction: it only ever queries the store.
type Compiler struct {
	store Store
}

func NewCompiler(store Store) *Compiler {
	return &Compiler{store: store}
}

// ProfitAndLoss compiles the P&L for [period.Start, period.End). Sums the
// frozen per-sale fields, so rate changes after posting never move a past
// period's figures, and adjacent disjoint periods are additive.
func (c *Compiler) ProfitAndLoss(ctx context.Context, period Period) (ProfitAndLoss, error) {
	if err := period.Validate(); err != nil {
		return ProfitAndLoss{}, err
	}

	sales, err := c.store.Sales(ctx, period)
	if err != nil {
		return ProfitAndLoss{}, err
	}

	pnl := ProfitAndLoss{Period: period}
	for _, s := range sales {
		pnl.Revenue = pnl.Revenue.Add(s.Revenue)
		pnl.COGS = pnl.COGS.Add(s.COGS)
		pnl.VAT = pnl.VAT.Add(s.VAT)
		pnl.IncomeTax = pnl.IncomeTax.Add(s.IncomeTax)
	}
	pnl.GrossProfit = pnl.Revenue.Sub(pnl.COGS)
	pnl.TaxExpense = pnl.VAT.Add(pnl.IncomeTax)
	pnl.NetProfit = pnl.GrossProfit.Sub(pnl.IncomeTax)
	return pnl, nil
}

// BalanceSheet compiles the cumulative position through asOf. Cash is
// replayed from the epoch: every sale brings in revenue plus VAT, every
// purchase movement pays out quantity * unit cost. Inventory is valued at
// the current cost basis (see package doc for the approximation note).
func (c *Compiler) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	lifetime := SinceEpoch(asOf.UTC())

	sales, err := c.store.Sales(ctx, lifetime)
	if err != nil {
		return BalanceSheet{}, err
	}
	movements, err := c.store.Movements(ctx, lifetime)
	if err != nil {
		return BalanceSheet{}, err
	}
	products, err := c.store.Products(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}

	bs := BalanceSheet{AsOf: asOf.UTC()}
	for _, s := range sales {
		bs.CashPosition = bs.CashPosition.Add(s.TotalWithVAT())
		bs.TaxLiability = bs.TaxLiability.Add(s.VAT).Add(s.IncomeTax)
	}
	for _, m := range movements {
		bs.CashPosition = bs.CashPosition.Sub(m.CashOutlay())
	}
	for _, p := range products {
		bs.InventoryValue = bs.InventoryValue.Add(p.InventoryValue())
	}
	bs.TotalAssets = bs.CashPosition.Add(bs.InventoryValue)
	bs.Equity = bs.TotalAssets.Sub(bs.TaxLiability)
	return bs, nil
}

// CashFlow compiles cash movement within [period.Start, period.End).
func (c *Compiler) CashFlow(ctx context.Context, period Period) (CashFlow, error) {
	if err := period.Validate(); err != nil {
		return CashFlow{}, err
	}

	sales, err := c.store.Sales(ctx, period)
	if err != nil {
		return CashFlow{}, err
	}
	movements, err := c.store.Movements(ctx, period)
	if err != nil {
		return CashFlow{}, err
	}

	cf := CashFlow{Period: period}
	for _, s := range sales {
		cf.CashIn = cf.CashIn.Add(s.TotalWithVAT())
	}
	for _, m := range movements {
		cf.CashOut = cf.CashOut.Add(m.CashOutlay())
	}
	cf.NetChange = cf.CashIn.Sub(cf.CashOut)
	return cf, nil
}

// Bundle compiles all three statements for a period, with the balance
// sheet taken at the period end.
func (c *Compiler) Bundle(ctx context.Context, period Period) (StatementBundle, error) {
	pnl, err := c.ProfitAndLoss(ctx, period)
	if err != nil {
		return StatementBundle{}, err
	}
	bs, err := c.BalanceSheet(ctx, period.End)
	if err != nil {
		return StatementBundle{}, err
	}
	cf, err := c.CashFlow(ctx, period)
	if err != nil {
		return StatementBundle{}, err
	}
	return StatementBundle{Period: period, PnL: pnl, Balance: bs, Cash: cf}, nil
}

// Monthly compiles the combined summary for a calendar month.
func (c *Compiler) Monthly(ctx context.Context, year int, month time.Month) (MonthlySummary, error) {
	period := MonthlyPeriod(year, month)
	b, err := c.Bundle(ctx, period)
	if err != nil {
		return MonthlySummary{}, err
	}
	return MonthlySummary{
		Period:         period,
		PnL:            b.PnL,
		Balance:        b.Balance,
		Cash:           b.Cash,
		PurchaseOutlay: b.Cash.CashOut,
	}, nil
}
