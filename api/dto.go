/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP command interface. These types decouple the
  internal domain model from the wire contract. Request types carry
  validator tags; handlers run them through go-playground/validator before
  touching the engine, so malformed payloads never reach domain logic.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mow/finance-engine/ledger"
)

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductDTO struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Cost         string `json:"cost"`
	Price        string `json:"price"`
	Stock        int64  `json:"stock"`
	ReorderLevel int64  `json:"reorder_level"`
	Archived     bool   `json:"archived"`
	LowStock     bool   `json:"low_stock"`
}

func toProductDTO(p ledger.Product) ProductDTO {
	return ProductDTO{
		Code:         p.Code,
		Name:         p.Name,
		Cost:         p.Cost.String(),
		Price:        p.Price.String(),
		Stock:        p.Stock,
		ReorderLevel: p.ReorderLevel,
		Archived:     p.Archived,
		LowStock:     p.BelowReorderLevel(),
	}
}

type CreateProductRequest struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Cost         string `json:"cost" validate:"required"`
	Price        string `json:"price" validate:"required"`
	InitialStock int64  `json:"initial_stock" validate:"gte=0"`
	ReorderLevel int64  `json:"reorder_level" validate:"gte=0"`
}

type UpdatePriceRequest struct {
	Price string `json:"price" validate:"required"`
}

// =============================================================================
// POSTINGS
// =============================================================================

type PostPurchaseRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	UnitCost    string `json:"unit_cost" validate:"required"`
	Date        string `json:"date"` // YYYY-MM-DD, defaults to today
}

type PostAdjustmentRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Date        string `json:"date"`
}

type PostSaleRequest struct {
	ProductCode string  `json:"product_code" validate:"required"`
	Quantity    int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *string `json:"unit_price,omitempty"` // override, optional
	Date        string  `json:"date"`
}

type SaleDTO struct {
	ID          string `json:"id"`
	ProductCode string `json:"product_code"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Revenue     string `json:"revenue"`
	COGS        string `json:"cogs"`
	GrossProfit string `json:"gross_profit"`
	VAT         string `json:"vat"`
	IncomeTax   string `json:"income_tax"`
	SoldAt      string `json:"sold_at"`
}

func toSaleDTO(s ledger.SaleTransaction) SaleDTO {
	return SaleDTO{
		ID:          s.ID,
		ProductCode: s.ProductCode,
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice.String(),
		Revenue:     s.Revenue.String(),
		COGS:        s.COGS.String(),
		GrossProfit: s.GrossProfit.String(),
		VAT:         s.VAT.String(),
		IncomeTax:   s.IncomeTax.String(),
		SoldAt:      s.SoldAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// TAX RATES
// =============================================================================

type TaxRatesDTO struct {
	VATRate       string `json:"vat_rate"`
	IncomeTaxRate string `json:"income_tax_rate"`
	EffectiveFrom string `json:"effective_from"`
}

func toTaxRatesDTO(cfg ledger.TaxRateConfig) TaxRatesDTO {
	return TaxRatesDTO{
		VATRate:       cfg.VATRate.String(),
		IncomeTaxRate: cfg.IncomeTaxRate.String(),
		EffectiveFrom: cfg.EffectiveFrom.UTC().Format(time.RFC3339),
	}
}

type UpdateTaxRatesRequest struct {
	VATRate       string `json:"vat_rate" validate:"required"`
	IncomeTaxRate string `json:"income_tax_rate" validate:"required"`
	EffectiveFrom string `json:"effective_from"` // RFC3339 or YYYY-MM-DD, defaults to now
}

// =============================================================================
// STATEMENTS
// =============================================================================

type MonthlySummaryDTO struct {
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Revenue        string `json:"revenue"`
	COGS           string `json:"cogs"`
	GrossProfit    string `json:"gross_profit"`
	VAT            string `json:"vat"`
	IncomeTax      string `json:"income_tax"`
	NetProfit      string `json:"net_profit"`
	Purchases      string `json:"purchases"`
	CashIn         string `json:"cash_in"`
	CashOut        string `json:"cash_out"`
	NetCashChange  string `json:"net_cash_change"`
	InventoryValue string `json:"inventory_value"`
	CashPosition   string `json:"cash_position"`
	TotalAssets    string `json:"total_assets"`
	TaxLiability   string `json:"tax_liability"`
	Equity         string `json:"equity"`
}

func toMonthlySummaryDTO(m ledger.MonthlySummary) MonthlySummaryDTO {
	return MonthlySummaryDTO{
		PeriodStart:    m.Period.Start.UTC().Format(time.DateOnly),
		PeriodEnd:      m.Period.End.UTC().Format(time.DateOnly),
		Revenue:        m.PnL.Revenue.String(),
		COGS:           m.PnL.COGS.String(),
		GrossProfit:    m.PnL.GrossProfit.String(),
		VAT:            m.PnL.VAT.String(),
		IncomeTax:      m.PnL.IncomeTax.String(),
		NetProfit:      m.PnL.NetProfit.String(),
		Purchases:      m.PurchaseOutlay.String(),
		CashIn:         m.Cash.CashIn.String(),
		CashOut:        m.Cash.CashOut.String(),
		NetCashChange:  m.Cash.NetChange.String(),
		InventoryValue: m.Balance.InventoryValue.String(),
		CashPosition:   m.Balance.CashPosition.String(),
		TotalAssets:    m.Balance.TotalAssets.String(),
		TaxLiability:   m.Balance.TaxLiability.String(),
		Equity:         m.Balance.Equity.String(),
	}
}

// =============================================================================
// BACKUP
// =============================================================================

type BackupResponse struct {
	Path string `json:"path"`
}

type RestoreRequest struct {
	Path string `json:"path" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// parseMoney parses a decimal string from a request field.
func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ledger.ValidationError{Field: field, Reason: "not a valid decimal"}
	}
	return d, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339; empty means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: "date", Reason: "use YYYY-MM-DD or RFC3339"}
	}
	return t.UTC(), nil
}
