/*
engine.go - Transaction engine: business rules for posting economic events

PURPOSE:
  The Store persists records but does not validate cross-field business
  logic. The Engine does: it checks input ranges, enforces the no-negative-
  stock invariant, maintains the weighted-average cost basis, freezes tax
  fields on sales, and keeps every posting atomic via the store's WithTx.

POSTING RULES:
  Purchase:   qty > 0, unitCost > 0. New cost basis is the weighted average
              (oldQty*oldCost + qty*unitCost) / (oldQty + qty).
  Sale:       qty <= stock or the whole posting fails (no partial sales).
              COGS, revenue, gross profit, VAT, and income tax are computed
              once and frozen on the record.
  Adjustment: signed delta at the current cost basis; may not drive stock
              negative. No cash effect.
  Tax rates:  both rates in [0, 1]; configs append, never mutate.

SIGN CONVENTIONS:
  VAT accrues on revenue. Income tax accrues on gross profit, clamped at
  zero for loss-making sales (there is no negative tax accrual).
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine validates and posts economic events against a transactional store.
// Single-user by design, but every posting still runs as one atomic unit so
// the stock and the movement/sale ledgers can never diverge.
type Engine struct {
	store    TxStore
	taxes    *TaxPolicy
	invoices InvoiceSink
	log      *logrus.Logger
}

// NewEngine creates an engine. The invoice sink may be nil when no
// reporting collaborator is wired (tests, bulk imports).
func NewEngine(store TxStore, invoices InvoiceSink, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:    store,
		taxes:    NewTaxPolicy(store),
		invoices: invoices,
		log:      log,
	}
}

// =============================================================================
// PRODUCT ENTRY
// =============================================================================

// AddProduct registers a product. Initial stock, when non-zero, is logged
// as a purchase movement so the movement ledger fully explains stock.
func (e *Engine) AddProduct(ctx context.Context, np NewProduct) (Product, error) {
	switch {
	case np.Code == "":
		return Product{}, &ValidationError{Field: "code", Reason: "must not be empty"}
	case np.Name == "":
		return Product{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	case np.Cost.IsNegative():
		return Product{}, &ValidationError{Field: "cost", Reason: "must not be negative"}
	case np.Price.IsNegative():
		return Product{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	case np.InitialStock < 0:
		return Product{}, &ValidationError{Field: "initial_stock", Reason: "must not be negative"}
	case np.ReorderLevel < 0:
		return Product{}, &ValidationError{Field: "reorder_level", Reason: "must not be negative"}
	}

	now := time.Now().UTC()
	product := Product{
		Code:         np.Code,
		Name:         np.Name,
		Cost:         np.Cost,
		Price:        np.Price,
		Stock:        np.InitialStock,
		ReorderLevel: np.ReorderLevel,
		CreatedAt:    now,
	}

	err := e.store.WithTx(ctx, func(s Store) error {
		if err := s.InsertProduct(ctx, product); err != nil {
			return err
		}
		if np.InitialStock > 0 {
			return s.AppendMovement(ctx, InventoryMovement{
				ID:          uuid.NewString(),
				ProductCode: np.Code,
				Type:        MovementPurchase,
				Quantity:    np.InitialStock,
				UnitCost:    np.Cost,
				MovedAt:     now,
			})
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	e.log.WithFields(logrus.Fields{"product": np.Code, "stock": np.InitialStock}).Info("product added")
	return product, nil
}

// ArchiveProduct soft-archives a product. The record stays in the store so
// historical COGS remains explainable; new postings against it are refused.
func (e *Engine) ArchiveProduct(ctx context.Context, code string) error {
	if _, err := e.store.Product(ctx, code); err != nil {
		return err
	}
	return e.store.ArchiveProduct(ctx, code)
}

// UpdatePrice changes a product's current sale price. Past sales keep the
// price they were posted with. Archived products refuse the change like
// every other posting.
func (e *Engine) UpdatePrice(ctx context.Context, code string, price decimal.Decimal) (Product, error) {
	if price.IsNegative() {
		return Product{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	var updated Product
	err := e.store.WithTx(ctx, func(s Store) error {
		p, err := s.Product(ctx, code)
		if err != nil {
			return err
		}
		if p.Archived {
			return ErrProductArchived
		}
		if err := s.UpdateProductPrice(ctx, code, price); err != nil {
			return err
		}
		updated = p
		updated.Price = price
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// =============================================================================
// PURCHASES
// =============================================================================

// PostPurchase appends a purchase movement and re-derives the product's
// weighted-average cost basis:
//
//	newCost = (oldQty*oldCost + qty*unitCost) / (oldQty + qty)
//
// Movement insert and product update happen in one transaction.
func (e *Engine) PostPurchase(ctx context.Context, code string, qty int64, unitCost decimal.Decimal, at time.Time) (Product, error) {
	if qty <= 0 {
		return Product{}, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !unitCost.IsPositive() {
		return Product{}, &ValidationError{Field: "unit_cost", Reason: "must be positive"}
	}

	var updated Product
	err := e.store.WithTx(ctx, func(s Store) error {
		p, err := s.Product(ctx, code)
		if err != nil {
			return err
		}
		if p.Archived {
			return ErrProductArchived
		}

		oldQty := decimal.NewFromInt(p.Stock)
		newQty := decimal.NewFromInt(p.Stock + qty)
		newCost := oldQty.Mul(p.Cost).Add(decimal.NewFromInt(qty).Mul(unitCost)).Div(newQty)

		if err := s.AppendMovement(ctx, InventoryMovement{
			ID:          uuid.NewString(),
			ProductCode: code,
			Type:        MovementPurchase,
			Quantity:    qty,
			UnitCost:    unitCost,
			MovedAt:     at.UTC(),
		}); err != nil {
			return err
		}
		if err := s.UpdateProductStock(ctx, code, p.Stock+qty, newCost); err != nil {
			return err
		}

		updated = p
		updated.Stock = p.Stock + qty
		updated.Cost = newCost
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	e.log.WithFields(logrus.Fields{
		"product":    code,
		"quantity":   qty,
		"cost_basis": updated.Cost.String(),
	}).Info("purchase posted")
	return updated, nil
}

// PostAdjustment corrects stock by a signed delta at the current cost
// basis. No cash moves and the cost basis is unchanged.
func (e *Engine) PostAdjustment(ctx context.Context, code string, qtyDelta int64, at time.Time) (Product, error) {
	if qtyDelta == 0 {
		return Product{}, &ValidationError{Field: "quantity", Reason: "must not be zero"}
	}

	var updated Product
	err := e.store.WithTx(ctx, func(s Store) error {
		p, err := s.Product(ctx, code)
		if err != nil {
			return err
		}
		if p.Archived {
			return ErrProductArchived
		}
		if p.Stock+qtyDelta < 0 {
			return &ValidationError{Field: "quantity", Reason: "adjustment would drive stock negative"}
		}

		if err := s.AppendMovement(ctx, InventoryMovement{
			ID:          uuid.NewString(),
			ProductCode: code,
			Type:        MovementAdjustment,
			Quantity:    qtyDelta,
			UnitCost:    p.Cost,
			MovedAt:     at.UTC(),
		}); err != nil {
			return err
		}
		if err := s.UpdateProductStock(ctx, code, p.Stock+qtyDelta, p.Cost); err != nil {
			return err
		}

		updated = p
		updated.Stock = p.Stock + qtyDelta
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// =============================================================================
// SALES
// =============================================================================

// SaleOrder is the input for posting a sale. PriceOverride, when set,
// replaces the product's current price for this sale only.
type SaleOrder struct {
	ProductCode   string
	Quantity      int64
	PriceOverride *decimal.Decimal
	At            time.Time
}

// PostSale posts a sale: checks stock, computes and freezes COGS, revenue,
// gross profit, VAT, and income-tax accrual using the rates in force at
// the sale timestamp, decrements stock, and persists the record — all in
// one transaction. The finalized record is then handed to the invoice
// sink; sink failure is logged and does not undo the sale.
func (e *Engine) PostSale(ctx context.Context, order SaleOrder) (SaleTransaction, error) {
	if order.Quantity <= 0 {
		return SaleTransaction{}, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if order.PriceOverride != nil && order.PriceOverride.IsNegative() {
		return SaleTransaction{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	at := order.At.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var (
		sale    SaleTransaction
		product Product
	)
	err := e.store.WithTx(ctx, func(s Store) error {
		p, err := s.Product(ctx, order.ProductCode)
		if err != nil {
			return err
		}
		if p.Archived {
			return ErrProductArchived
		}
		if order.Quantity > p.Stock {
			return &InsufficientStockError{
				ProductCode: p.Code,
				Requested:   order.Quantity,
				Available:   p.Stock,
			}
		}

		price := p.Price
		if order.PriceOverride != nil {
			price = *order.PriceOverride
		}

		rates, err := s.TaxRatesAt(ctx, at)
		if err != nil {
			return err
		}

		qty := decimal.NewFromInt(order.Quantity)
		revenue := price.Mul(qty)
		cogs := p.Cost.Mul(qty)
		grossProfit := revenue.Sub(cogs)

		// Income tax accrues on profit, never on revenue, and a
		// loss-making sale accrues zero rather than negative tax.
		taxableProfit := grossProfit
		if taxableProfit.IsNegative() {
			taxableProfit = decimal.Zero
		}

		sale = SaleTransaction{
			ID:          uuid.NewString(),
			ProductCode: p.Code,
			Quantity:    order.Quantity,
			UnitPrice:   price,
			Revenue:     revenue,
			COGS:        cogs,
			GrossProfit: grossProfit,
			VAT:         revenue.Mul(rates.VATRate),
			IncomeTax:   taxableProfit.Mul(rates.IncomeTaxRate),
			SoldAt:      at,
		}

		if err := s.AppendSale(ctx, sale); err != nil {
			return err
		}
		if err := s.UpdateProductStock(ctx, p.Code, p.Stock-order.Quantity, p.Cost); err != nil {
			return err
		}

		product = p
		return nil
	})
	if err != nil {
		return SaleTransaction{}, err
	}

	if e.invoices != nil {
		if err := e.invoices.Emit(ctx, NewInvoice(product, sale)); err != nil {
			e.log.WithFields(logrus.Fields{"sale": sale.ID, "product": sale.ProductCode}).
				WithError(err).Warn("invoice emission failed")
		}
	}

	e.log.WithFields(logrus.Fields{
		"product":  sale.ProductCode,
		"quantity": sale.Quantity,
		"revenue":  sale.Revenue.String(),
	}).Info("sale posted")
	return sale, nil
}

// =============================================================================
// TAX RATES
// =============================================================================

// UpdateTaxRates appends a new rate config effective from the given
// timestamp. Prior configs are never mutated or deleted, and tax fields on
// already-posted sales stay frozen.
func (e *Engine) UpdateTaxRates(ctx context.Context, vat, incomeTax decimal.Decimal, effectiveFrom time.Time) (TaxRateConfig, error) {
	if vat.IsNegative() || vat.GreaterThan(decimal.NewFromInt(1)) {
		return TaxRateConfig{}, &ValidationError{Field: "vat_rate", Reason: "must be in [0, 1]"}
	}
	if incomeTax.IsNegative() || incomeTax.GreaterThan(decimal.NewFromInt(1)) {
		return TaxRateConfig{}, &ValidationError{Field: "income_tax_rate", Reason: "must be in [0, 1]"}
	}

	cfg := TaxRateConfig{
		ID:            uuid.NewString(),
		VATRate:       vat,
		IncomeTaxRate: incomeTax,
		EffectiveFrom: effectiveFrom.UTC(),
	}
	if err := e.store.AppendTaxRates(ctx, cfg); err != nil {
		return TaxRateConfig{}, err
	}

	e.log.WithFields(logrus.Fields{
		"vat":        vat.String(),
		"income_tax": incomeTax.String(),
		"effective":  cfg.EffectiveFrom.Format(time.RFC3339),
	}).Info("tax rates updated")
	return cfg, nil
}

// Taxes exposes the rate lookup used by front ends.
func (e *Engine) Taxes() *TaxPolicy { return e.taxes }
