/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the boundary between domain logic and the database. The engine
  and statement compiler only ever see these interfaces; SQLite and the
  in-memory store implement them.

APPEND-ONLY CONTRACT:
  Movements, sales, and tax configs have Append* methods and queries only.
  There is no update or delete for any of them. Products are the single
  mutable entity (stock and cost basis change on postings); they are
  archived, never deleted.

ORDERING:
  Movements(period) and Sales(period) return records whose timestamp falls
  in [period.Start, period.End), ascending by timestamp with insertion
  order breaking ties. The sequence is finite and restartable: calling the
  query again yields the same records in the same order.

DURABILITY:
  Every mutating call is durable before it returns. A crash immediately
  after a successful call must not lose the record.

IMPLEMENTATIONS:
  - store/sqlite: production store, single SQLite file
  - ledger/store: in-memory store for tests
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Repository of products, movements, sales, and tax configs
// =============================================================================

type Store interface {
	// Products
	InsertProduct(ctx context.Context, p Product) error
	Product(ctx context.Context, code string) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	LowStock(ctx context.Context) ([]Product, error)
	UpdateProductStock(ctx context.Context, code string, stock int64, cost decimal.Decimal) error
	UpdateProductPrice(ctx context.Context, code string, price decimal.Decimal) error
	ArchiveProduct(ctx context.Context, code string) error

	// Inventory movements (append-only)
	AppendMovement(ctx context.Context, m InventoryMovement) error
	Movements(ctx context.Context, period Period) ([]InventoryMovement, error)

	// Sales (append-only)
	AppendSale(ctx context.Context, s SaleTransaction) error
	Sales(ctx context.Context, period Period) ([]SaleTransaction, error)
	RecentSales(ctx context.Context, limit int) ([]SaleTransaction, error)

	// Tax rate configs (append-only)
	AppendTaxRates(ctx context.Context, cfg TaxRateConfig) error
	TaxRatesAt(ctx context.Context, at time.Time) (TaxRateConfig, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic multi-write postings
// =============================================================================

// TxStore wraps Store with transaction support. Postings that touch more
// than one table (movement insert + product update) run inside WithTx so
// either all writes happen or none do.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. The Store passed to fn is
	// scoped to that transaction. If fn returns an error the transaction
	// is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
