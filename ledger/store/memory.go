// Package store provides an in-memory ledger.Store implementation for
// tests and development. The SQLite store in store/sqlite is the durable
// production implementation.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mow/finance-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every record in process memory. Movements, sales, and tax
// configs are append-only slices; insertion order is the tiebreak for
// equal timestamps, matching the SQLite store's ordering contract.
type Memory struct {
	mu        sync.RWMutex
	products  map[string]ledger.Product
	order     []string // product codes in insertion order
	movements []ledger.InventoryMovement
	sales     []ledger.SaleTransaction
	taxRates  []ledger.TaxRateConfig
}

// NewMemory returns an empty store. Unlike the SQLite store it does NOT
// seed zero tax rates; tests exercising NoTaxConfigError rely on that.
func NewMemory() *Memory {
	return &Memory{products: make(map[string]ledger.Product)}
}

// NewSeededMemory returns a store with the zero-rate default config, the
// same starting state a freshly migrated SQLite store has.
func NewSeededMemory() *Memory {
	m := NewMemory()
	m.taxRates = append(m.taxRates, ledger.ZeroRates())
	return m
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (m *Memory) InsertProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.Code]; !ok {
		m.order = append(m.order, p.Code)
	}
	m.products[p.Code] = p
	return nil
}

func (m *Memory) Product(_ context.Context, code string) (ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[code]
	if !ok {
		return ledger.Product{}, &ledger.NotFoundError{Kind: "product", Key: code}
	}
	return p, nil
}

func (m *Memory) Products(_ context.Context) ([]ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Product, 0, len(m.products))
	for _, code := range m.order {
		out = append(out, m.products[code])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) LowStock(_ context.Context) ([]ledger.Product, error) {
	all, _ := m.Products(context.Background())
	var out []ledger.Product
	for _, p := range all {
		if !p.Archived && p.BelowReorderLevel() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) UpdateProductStock(_ context.Context, code string, stock int64, cost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return &ledger.NotFoundError{Kind: "product", Key: code}
	}
	p.Stock = stock
	p.Cost = cost
	m.products[code] = p
	return nil
}

func (m *Memory) UpdateProductPrice(_ context.Context, code string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return &ledger.NotFoundError{Kind: "product", Key: code}
	}
	p.Price = price
	m.products[code] = p
	return nil
}

func (m *Memory) ArchiveProduct(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return &ledger.NotFoundError{Kind: "product", Key: code}
	}
	p.Archived = true
	m.products[code] = p
	return nil
}

// =============================================================================
// MOVEMENTS AND SALES - Append-only
// =============================================================================

func (m *Memory) AppendMovement(_ context.Context, mv ledger.InventoryMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, mv)
	return nil
}

func (m *Memory) Movements(_ context.Context, period ledger.Period) ([]ledger.InventoryMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.InventoryMovement
	for _, mv := range m.movements {
		if period.Contains(mv.MovedAt) {
			out = append(out, mv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MovedAt.Before(out[j].MovedAt) })
	return out, nil
}

func (m *Memory) AppendSale(_ context.Context, s ledger.SaleTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, s)
	return nil
}

func (m *Memory) Sales(_ context.Context, period ledger.Period) ([]ledger.SaleTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.SaleTransaction
	for _, s := range m.sales {
		if period.Contains(s.SoldAt) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SoldAt.Before(out[j].SoldAt) })
	return out, nil
}

func (m *Memory) RecentSales(_ context.Context, limit int) ([]ledger.SaleTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.SaleTransaction, len(m.sales))
	copy(out, m.sales)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SoldAt.After(out[j].SoldAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// TAX RATES
// =============================================================================

func (m *Memory) AppendTaxRates(_ context.Context, cfg ledger.TaxRateConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taxRates = append(m.taxRates, cfg)
	return nil
}

func (m *Memory) TaxRatesAt(_ context.Context, at time.Time) (ledger.TaxRateConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  ledger.TaxRateConfig
		found bool
	)
	for _, cfg := range m.taxRates {
		if cfg.EffectiveFrom.After(at) {
			continue
		}
		// >= so that on equal effective-from the latest-appended config
		// wins, matching the SQLite store's rowid tiebreak.
		if !found || !cfg.EffectiveFrom.Before(best.EffectiveFrom) {
			best = cfg
			found = true
		}
	}
	if !found {
		return ledger.TaxRateConfig{}, &ledger.NoTaxConfigError{At: at}
	}
	return best, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot that is restored when fn fails.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func NewSeededTxMemory() *TxMemory {
	return &TxMemory{Memory: NewSeededMemory()}
}

// WithTx executes fn against the store. On error, state is rolled back to
// the snapshot taken on entry.
func (tm *TxMemory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	snap := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snap)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	products := make(map[string]ledger.Product, len(tm.products))
	for k, v := range tm.products {
		products[k] = v
	}
	return memorySnapshot{
		products:  products,
		order:     append([]string{}, tm.order...),
		movements: append([]ledger.InventoryMovement{}, tm.movements...),
		sales:     append([]ledger.SaleTransaction{}, tm.sales...),
		taxRates:  append([]ledger.TaxRateConfig{}, tm.taxRates...),
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.products = s.products
	tm.order = s.order
	tm.movements = s.movements
	tm.sales = s.sales
	tm.taxRates = s.taxRates
}

type memorySnapshot struct {
	products  map[string]ledger.Product
	order     []string
	movements []ledger.InventoryMovement
	sales     []ledger.SaleTransaction
	taxRates  []ledger.TaxRateConfig
}
