/*
export.go - Capability interfaces for the reporting collaborators

PURPOSE:
  The engine and compiler never know about file formats. Invoice emission
  and statement export go through these interfaces so a front end can swap
  CSV for anything else without touching ledger logic. Concrete
  implementations live in the report package.
*/
package ledger

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INVOICE - Per-sale tax invoice record
// =============================================================================

// Invoice is the finalized record handed to the reporting collaborator
// after a sale posts: one row per sale, fixed column order
// (date, product, quantity, unit price, revenue, VAT, net total).
type Invoice struct {
	SaleID      string
	Date        time.Time
	ProductCode string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Revenue     decimal.Decimal
	VAT         decimal.Decimal
	Total       decimal.Decimal // Revenue + VAT
}

// NewInvoice builds the invoice for a posted sale.
func NewInvoice(p Product, s SaleTransaction) Invoice {
	return Invoice{
		SaleID:      s.ID,
		Date:        s.SoldAt,
		ProductCode: p.Code,
		ProductName: p.Name,
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		Revenue:     s.Revenue,
		VAT:         s.VAT,
		Total:       s.TotalWithVAT(),
	}
}

// InvoiceSink consumes finalized invoices. Emission is a side effect of
// posting a sale: a sink failure is reported to the caller's logger but
// never rolls back the posted sale.
type InvoiceSink interface {
	Emit(ctx context.Context, inv Invoice) error
}

// =============================================================================
// STATEMENT EXPORT - Spreadsheet-style rendering
// =============================================================================

// StatementBundle is one period's worth of compiled statements, the unit
// the export collaborator renders (one sheet per statement).
type StatementBundle struct {
	Period  Period
	PnL     ProfitAndLoss
	Balance BalanceSheet
	Cash    CashFlow
}

// StatementExporter renders a compiled bundle to a tabular file with the
// period boundaries in the header.
type StatementExporter interface {
	Export(w io.Writer, b StatementBundle) error
}
