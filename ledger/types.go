/*
Package ledger provides the core financial engine for a small retail
operation: inventory postings, sales with tax accrual, and statement
compilation.

PURPOSE:
  This package contains the domain types and algorithms that turn raw
  inventory movements and sale transactions into consistent profit & loss,
  balance sheet, and cash-flow statements. Persistence, HTTP, and file
  export live elsewhere; this package only knows the Store interface and
  the collaborator capability interfaces in export.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: stocked item with a weighted-average cost basis
  - InventoryMovement: immutable record of a stock change (purchase/adjustment)
  - SaleTransaction: immutable record of a sale with frozen tax fields
  - TaxRateConfig: append-only VAT / income-tax rate configuration

DESIGN PRINCIPLES:
  1. Immutability: movements, sales, and rate configs are append-only
  2. Precision: decimal.Decimal for all money, never float64
  3. Frozen postings: tax fields are computed at posting time and never
     restated when rates change
  4. Statements are derived: always reproducible from the Store alone

SEE ALSO:
  - engine.go: posting rules (purchases, sales, tax rate updates)
  - statement.go: period aggregation into the three statements
  - taxpolicy.go: effective-dated rate lookup
  - store.go: persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - Stocked item with weighted-average cost basis
// =============================================================================

// Product is identified by its code, a short unique SKU entered by the user.
// Cost is the weighted-average unit cost of the stock currently on hand; it
// is recomputed on every purchase and is the basis for COGS on sales.
//
// Products are never deleted. Archiving hides a product from new postings
// while preserving the history that past COGS figures depend on.
type Product struct {
	Code         string
	Name         string
	Cost         decimal.Decimal // weighted-average cost basis per unit
	Price        decimal.Decimal // current unit sale price
	Stock        int64
	ReorderLevel int64
	Archived     bool
	CreatedAt    time.Time
}

// BelowReorderLevel reports whether the product needs restocking.
func (p Product) BelowReorderLevel() bool {
	return p.Stock <= p.ReorderLevel
}

// InventoryValue returns stock quantity valued at the current cost basis.
func (p Product) InventoryValue() decimal.Decimal {
	return p.Cost.Mul(decimal.NewFromInt(p.Stock))
}

// NewProduct is the input for creating a product.
type NewProduct struct {
	Code         string
	Name         string
	Cost         decimal.Decimal
	Price        decimal.Decimal
	InitialStock int64
	ReorderLevel int64
}

// =============================================================================
// INVENTORY MOVEMENT - Append-only stock change record
// =============================================================================

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"   // Stock bought in, cash out
	MovementAdjustment MovementType = "adjustment" // Correction, no cash effect
)

// InventoryMovement records one change to stock. Immutable once appended.
// Quantity is a signed delta: purchases are positive, adjustments may be
// either sign. UnitCost is the unit cost at the time of the movement, so
// historical purchase outlay can always be reconstructed.
type InventoryMovement struct {
	ID          string
	ProductCode string
	Type        MovementType
	Quantity    int64
	UnitCost    decimal.Decimal
	MovedAt     time.Time
}

// CashOutlay returns the cash spent on this movement. Only purchases move
// cash; adjustments are bookkeeping corrections.
func (m InventoryMovement) CashOutlay() decimal.Decimal {
	if m.Type != MovementPurchase {
		return decimal.Zero
	}
	return m.UnitCost.Mul(decimal.NewFromInt(m.Quantity))
}

// =============================================================================
// SALE TRANSACTION - Immutable sale with frozen tax fields
// =============================================================================

// SaleTransaction is the posted record of one sale. Every derived field
// (Revenue, COGS, GrossProfit, VAT, IncomeTax) is computed at posting time
// from the product's cost basis and the tax rates then in effect, and is
// NEVER recomputed afterwards. Changing tax rates does not restate history.
type SaleTransaction struct {
	ID          string
	ProductCode string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Revenue     decimal.Decimal // Quantity * UnitPrice
	COGS        decimal.Decimal // Quantity * cost basis at sale time
	GrossProfit decimal.Decimal // Revenue - COGS
	VAT         decimal.Decimal // Revenue * VAT rate at sale time
	IncomeTax   decimal.Decimal // max(GrossProfit, 0) * income-tax rate
	SoldAt      time.Time
}

// TotalWithVAT returns what the buyer pays: revenue plus VAT collected.
func (s SaleTransaction) TotalWithVAT() decimal.Decimal {
	return s.Revenue.Add(s.VAT)
}

// =============================================================================
// TAX RATE CONFIG - Append-only effective-dated rates
// =============================================================================

// TaxRateConfig holds the VAT and income-tax rates in force from
// EffectiveFrom onwards. Configs are append-only: updating rates appends a
// new config and leaves prior ones untouched, so statements for past
// periods stay reproducible.
type TaxRateConfig struct {
	ID            string
	VATRate       decimal.Decimal // on revenue, in [0, 1]
	IncomeTaxRate decimal.Decimal // on gross profit, in [0, 1]
	EffectiveFrom time.Time
}

// ZeroRates returns the default config seeded at store initialization so
// that rate lookup is total before the user configures anything.
func ZeroRates() TaxRateConfig {
	return TaxRateConfig{
		ID:            "seed-zero-rates",
		VATRate:       decimal.Zero,
		IncomeTaxRate: decimal.Zero,
		EffectiveFrom: time.Unix(0, 0).UTC(),
	}
}
