/*
Package sqlite provides the durable, file-backed implementation of the
ledger storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore on a single SQLite file. The
  whole persisted state — products, inventory movements, sales, tax rate
  configs, and the schema-version marker — lives in that one file, which
  is also the unit of backup and restore (see backup.go).

KEY TABLES:
  products:            mutable stock + weighted-average cost basis
  inventory_movements: append-only stock change ledger
  sales:               append-only sale records with frozen tax fields
  tax_rates:           append-only effective-dated rate configs
  meta:                schema_version marker, checked on restore

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statement exists for movements, sales, or tax_rates.
  Products are the single mutable table and are archived, never deleted.

ORDERING:
  Period queries order by timestamp ascending with rowid as the tiebreak,
  so records posted at the same instant replay in insertion order.

MONEY:
  All monetary columns are TEXT holding decimal strings; values round-trip
  through shopspring/decimal without float drift.

CONCURRENCY:
  Single-user system, but a sync.RWMutex still guards the handle so a
  concurrent caller (or a backup in progress) cannot interleave with a
  posting. Transaction-scoped operations run against the *sql.Tx directly
  and take no locks of their own; WithTx holds the write lock for the
  whole transaction.

WAL MODE:
  The database is opened with WAL journaling and foreign keys on. Backup
  checkpoints the WAL before copying so the file alone is the full state.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mow/finance-engine/ledger"
)

// SchemaVersion is written to the meta table on migration and verified
// before a restore is accepted.
const SchemaVersion = "1"

// Store implements ledger.TxStore on a SQLite file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the store at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*Store, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{path: dbPath, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// migrate creates the schema and seeds the defaults: the schema-version
// marker and, when the tax_rates table is empty, the zero-rate config
// that makes rate lookup total.
func (s *Store) migrate() error {
	schema := `
	-- Products (only mutable table; archived, never deleted)
	CREATE TABLE IF NOT EXISTS products (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cost TEXT NOT NULL,
		price TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		reorder_level INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	CREATE INDEX IF NOT EXISTS idx_products_low_stock ON products(stock, reorder_level);

	-- Inventory movements (append-only ledger of stock changes)
	CREATE TABLE IF NOT EXISTS inventory_movements (
		id TEXT PRIMARY KEY,
		product_code TEXT NOT NULL REFERENCES products(code),
		movement_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost TEXT NOT NULL,
		moved_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_moved_at ON inventory_movements(moved_at);
	CREATE INDEX IF NOT EXISTS idx_movements_product ON inventory_movements(product_code);

	-- Sales (append-only, tax fields frozen at posting time)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		product_code TEXT NOT NULL REFERENCES products(code),
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		revenue TEXT NOT NULL,
		cogs TEXT NOT NULL,
		gross_profit TEXT NOT NULL,
		vat TEXT NOT NULL,
		income_tax TEXT NOT NULL,
		sold_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at);
	CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_code);

	-- Tax rate configs (append-only, effective-dated)
	CREATE TABLE IF NOT EXISTS tax_rates (
		id TEXT PRIMARY KEY,
		vat_rate TEXT NOT NULL,
		income_tax_rate TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_rates_effective ON tax_rates(effective_from);

	-- Schema version marker (checked before restore)
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, SchemaVersion); err != nil {
		return err
	}

	seed := ledger.ZeroRates()
	_, err := s.db.Exec(
		`INSERT INTO tax_rates (id, vat_rate, income_tax_rate, effective_from, created_at)
		 SELECT ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM tax_rates)`,
		seed.ID, seed.VATRate.String(), seed.IncomeTaxRate.String(),
		formatTime(seed.EffectiveFrom), formatTime(time.Now()),
	)
	return err
}

// dbtx is the common surface of *sql.DB and *sql.Tx; every query helper
// below runs against either.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime and parseDecimal reject malformed column values rather than
// coercing them to zero: restore accepts foreign files that pass the
// table-level checks, so row data cannot be assumed well-formed.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed decimal %q: %w", s, err)
	}
	return d, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) InsertProduct(ctx context.Context, p ledger.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertProduct(ctx, s.db, p)
}

func insertProduct(ctx context.Context, q dbtx, p ledger.Product) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO products (code, name, cost, price, stock, reorder_level, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Cost.String(), p.Price.String(),
		p.Stock, p.ReorderLevel, boolToInt(p.Archived), formatTime(p.CreatedAt),
	)
	if err != nil && isUniqueConstraintError(err) {
		return &ledger.ValidationError{Field: "code", Reason: "product code already exists"}
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *Store) Product(ctx context.Context, code string) (ledger.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProduct(ctx, s.db, code)
}

func getProduct(ctx context.Context, q dbtx, code string) (ledger.Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT code, name, cost, price, stock, reorder_level, archived, created_at
		FROM products WHERE code = ?`, code)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Product{}, &ledger.NotFoundError{Kind: "product", Key: code}
	}
	if err != nil {
		return ledger.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *Store) Products(ctx context.Context) ([]ledger.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryProducts(ctx, s.db, `
		SELECT code, name, cost, price, stock, reorder_level, archived, created_at
		FROM products ORDER BY name ASC`)
}

func (s *Store) LowStock(ctx context.Context) ([]ledger.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryProducts(ctx, s.db, `
		SELECT code, name, cost, price, stock, reorder_level, archived, created_at
		FROM products WHERE archived = 0 AND stock <= reorder_level ORDER BY name ASC`)
}

func (s *Store) UpdateProductStock(ctx context.Context, code string, stock int64, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateProductStock(ctx, s.db, code, stock, cost)
}

func updateProductStock(ctx context.Context, q dbtx, code string, stock int64, cost decimal.Decimal) error {
	res, err := q.ExecContext(ctx,
		`UPDATE products SET stock = ?, cost = ? WHERE code = ?`,
		stock, cost.String(), code)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	return requireRow(res, "product", code)
}

func (s *Store) UpdateProductPrice(ctx context.Context, code string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateProductPrice(ctx, s.db, code, price)
}

func updateProductPrice(ctx context.Context, q dbtx, code string, price decimal.Decimal) error {
	res, err := q.ExecContext(ctx,
		`UPDATE products SET price = ? WHERE code = ?`, price.String(), code)
	if err != nil {
		return fmt.Errorf("failed to update product price: %w", err)
	}
	return requireRow(res, "product", code)
}

func (s *Store) ArchiveProduct(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return archiveProduct(ctx, s.db, code)
}

func archiveProduct(ctx context.Context, q dbtx, code string) error {
	res, err := q.ExecContext(ctx, `UPDATE products SET archived = 1 WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}
	return requireRow(res, "product", code)
}

func requireRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: kind, Key: key}
	}
	return nil
}

func queryProducts(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.Product, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (ledger.Product, error) {
	var (
		p         ledger.Product
		cost      string
		price     string
		archived  int
		createdAt string
	)
	err := r.Scan(&p.Code, &p.Name, &cost, &price, &p.Stock, &p.ReorderLevel, &archived, &createdAt)
	if err != nil {
		return p, err
	}
	if p.Cost, err = parseDecimal(cost); err != nil {
		return p, err
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return p, err
	}
	p.Archived = archived != 0
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, err
	}
	return p, nil
}

// =============================================================================
// INVENTORY MOVEMENTS - Append-only
// =============================================================================

func (s *Store) AppendMovement(ctx context.Context, m ledger.InventoryMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendMovement(ctx, s.db, m)
}

func appendMovement(ctx context.Context, q dbtx, m ledger.InventoryMovement) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, product_code, movement_type, quantity, unit_cost, moved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductCode, m.Type, m.Quantity, m.UnitCost.String(),
		formatTime(m.MovedAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	return nil
}

func (s *Store) Movements(ctx context.Context, period ledger.Period) ([]ledger.InventoryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryMovements(ctx, s.db, period)
}

func queryMovements(ctx context.Context, q dbtx, period ledger.Period) ([]ledger.InventoryMovement, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, product_code, movement_type, quantity, unit_cost, moved_at
		FROM inventory_movements
		WHERE moved_at >= ? AND moved_at < ?
		ORDER BY moved_at ASC, rowid ASC`,
		formatTime(period.Start), formatTime(period.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var movements []ledger.InventoryMovement
	for rows.Next() {
		var (
			m        ledger.InventoryMovement
			unitCost string
			movedAt  string
		)
		err := rows.Scan(&m.ID, &m.ProductCode, &m.Type, &m.Quantity, &unitCost, &movedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		if m.UnitCost, err = parseDecimal(unitCost); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		if m.MovedAt, err = parseTime(movedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// =============================================================================
// SALES - Append-only
// =============================================================================

func (s *Store) AppendSale(ctx context.Context, sale ledger.SaleTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendSale(ctx, s.db, sale)
}

func appendSale(ctx context.Context, q dbtx, sale ledger.SaleTransaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sales (id, product_code, quantity, unit_price, revenue, cogs, gross_profit, vat, income_tax, sold_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.ProductCode, sale.Quantity,
		sale.UnitPrice.String(), sale.Revenue.String(), sale.COGS.String(),
		sale.GrossProfit.String(), sale.VAT.String(), sale.IncomeTax.String(),
		formatTime(sale.SoldAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to append sale: %w", err)
	}
	return nil
}

const saleColumns = `id, product_code, quantity, unit_price, revenue, cogs, gross_profit, vat, income_tax, sold_at`

func (s *Store) Sales(ctx context.Context, period ledger.Period) ([]ledger.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return salesInPeriod(ctx, s.db, period)
}

func salesInPeriod(ctx context.Context, q dbtx, period ledger.Period) ([]ledger.SaleTransaction, error) {
	return querySales(ctx, q, `
		SELECT `+saleColumns+` FROM sales
		WHERE sold_at >= ? AND sold_at < ?
		ORDER BY sold_at ASC, rowid ASC`,
		formatTime(period.Start), formatTime(period.End))
}

func (s *Store) RecentSales(ctx context.Context, limit int) ([]ledger.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recentSales(ctx, s.db, limit)
}

func recentSales(ctx context.Context, q dbtx, limit int) ([]ledger.SaleTransaction, error) {
	return querySales(ctx, q, `
		SELECT `+saleColumns+` FROM sales
		ORDER BY sold_at DESC, rowid DESC
		LIMIT ?`, limit)
}

func querySales(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.SaleTransaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []ledger.SaleTransaction
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func scanSale(r rowScanner) (ledger.SaleTransaction, error) {
	var (
		sale                                              ledger.SaleTransaction
		unitPrice, revenue, cogs, gross, vat, tax, soldAt string
	)
	err := r.Scan(&sale.ID, &sale.ProductCode, &sale.Quantity,
		&unitPrice, &revenue, &cogs, &gross, &vat, &tax, &soldAt)
	if err != nil {
		return sale, err
	}
	if sale.UnitPrice, err = parseDecimal(unitPrice); err != nil {
		return sale, err
	}
	if sale.Revenue, err = parseDecimal(revenue); err != nil {
		return sale, err
	}
	if sale.COGS, err = parseDecimal(cogs); err != nil {
		return sale, err
	}
	if sale.GrossProfit, err = parseDecimal(gross); err != nil {
		return sale, err
	}
	if sale.VAT, err = parseDecimal(vat); err != nil {
		return sale, err
	}
	if sale.IncomeTax, err = parseDecimal(tax); err != nil {
		return sale, err
	}
	if sale.SoldAt, err = parseTime(soldAt); err != nil {
		return sale, err
	}
	return sale, nil
}

// =============================================================================
// TAX RATES - Append-only
// =============================================================================

func (s *Store) AppendTaxRates(ctx context.Context, cfg ledger.TaxRateConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTaxRates(ctx, s.db, cfg)
}

func appendTaxRates(ctx context.Context, q dbtx, cfg ledger.TaxRateConfig) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tax_rates (id, vat_rate, income_tax_rate, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		cfg.ID, cfg.VATRate.String(), cfg.IncomeTaxRate.String(),
		formatTime(cfg.EffectiveFrom), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to append tax rates: %w", err)
	}
	return nil
}

func (s *Store) TaxRatesAt(ctx context.Context, at time.Time) (ledger.TaxRateConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return taxRatesAt(ctx, s.db, at)
}

func taxRatesAt(ctx context.Context, q dbtx, at time.Time) (ledger.TaxRateConfig, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, vat_rate, income_tax_rate, effective_from
		FROM tax_rates
		WHERE effective_from <= ?
		ORDER BY effective_from DESC, rowid DESC
		LIMIT 1`, formatTime(at))

	var (
		cfg           ledger.TaxRateConfig
		vat, tax, eff string
	)
	err := row.Scan(&cfg.ID, &vat, &tax, &eff)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.TaxRateConfig{}, &ledger.NoTaxConfigError{At: at}
	}
	if err != nil {
		return ledger.TaxRateConfig{}, fmt.Errorf("failed to query tax rates: %w", err)
	}
	if cfg.VATRate, err = parseDecimal(vat); err != nil {
		return ledger.TaxRateConfig{}, fmt.Errorf("failed to query tax rates: %w", err)
	}
	if cfg.IncomeTaxRate, err = parseDecimal(tax); err != nil {
		return ledger.TaxRateConfig{}, fmt.Errorf("failed to query tax rates: %w", err)
	}
	if cfg.EffectiveFrom, err = parseTime(eff); err != nil {
		return ledger.TaxRateConfig{}, fmt.Errorf("failed to query tax rates: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a single database transaction. The write lock
// is held for the duration; the transaction-scoped store runs every
// operation against the *sql.Tx and takes no locks of its own.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertProduct(ctx context.Context, p ledger.Product) error {
	return insertProduct(ctx, ts.tx, p)
}

func (ts *txStore) Product(ctx context.Context, code string) (ledger.Product, error) {
	return getProduct(ctx, ts.tx, code)
}

func (ts *txStore) Products(ctx context.Context) ([]ledger.Product, error) {
	return queryProducts(ctx, ts.tx, `
		SELECT code, name, cost, price, stock, reorder_level, archived, created_at
		FROM products ORDER BY name ASC`)
}

func (ts *txStore) LowStock(ctx context.Context) ([]ledger.Product, error) {
	return queryProducts(ctx, ts.tx, `
		SELECT code, name, cost, price, stock, reorder_level, archived, created_at
		FROM products WHERE archived = 0 AND stock <= reorder_level ORDER BY name ASC`)
}

func (ts *txStore) UpdateProductStock(ctx context.Context, code string, stock int64, cost decimal.Decimal) error {
	return updateProductStock(ctx, ts.tx, code, stock, cost)
}

func (ts *txStore) UpdateProductPrice(ctx context.Context, code string, price decimal.Decimal) error {
	return updateProductPrice(ctx, ts.tx, code, price)
}

func (ts *txStore) ArchiveProduct(ctx context.Context, code string) error {
	return archiveProduct(ctx, ts.tx, code)
}

func (ts *txStore) AppendMovement(ctx context.Context, m ledger.InventoryMovement) error {
	return appendMovement(ctx, ts.tx, m)
}

func (ts *txStore) Movements(ctx context.Context, period ledger.Period) ([]ledger.InventoryMovement, error) {
	return queryMovements(ctx, ts.tx, period)
}

func (ts *txStore) AppendSale(ctx context.Context, sale ledger.SaleTransaction) error {
	return appendSale(ctx, ts.tx, sale)
}

func (ts *txStore) Sales(ctx context.Context, period ledger.Period) ([]ledger.SaleTransaction, error) {
	return salesInPeriod(ctx, ts.tx, period)
}

func (ts *txStore) RecentSales(ctx context.Context, limit int) ([]ledger.SaleTransaction, error) {
	return recentSales(ctx, ts.tx, limit)
}

func (ts *txStore) AppendTaxRates(ctx context.Context, cfg ledger.TaxRateConfig) error {
	return appendTaxRates(ctx, ts.tx, cfg)
}

func (ts *txStore) TaxRatesAt(ctx context.Context, at time.Time) (ledger.TaxRateConfig, error) {
	return taxRatesAt(ctx, ts.tx, at)
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
