/*
handlers.go - HTTP handlers for the retail finance engine

PURPOSE:
  Exposes the command interface over REST so any front end (desktop, web,
  CLI) can drive the engine. Handlers parse and validate input, call the
  engine or compiler, and serialize the result. No business logic lives
  here.

ENDPOINTS:
  Products:
    GET    /api/products                         List products
    POST   /api/products                         Create product
    GET    /api/products/low-stock               Products at/below reorder level
    PUT    /api/products/{code}/price            Update sale price
    POST   /api/products/{code}/archive          Soft-archive

  Postings:
    POST   /api/purchases                        Post a purchase
    POST   /api/adjustments                      Post a stock adjustment
    POST   /api/sales                            Post a sale (emits invoice)
    GET    /api/sales                            Recent sales

  Taxes:
    GET    /api/taxes                            Current rates
    PUT    /api/taxes                            Append new rate config

  Statements:
    GET    /api/statements/{year}/{month}        Monthly summary
    GET    /api/statements/{year}/{month}/export Download xlsx workbook

  Backup:
    POST   /api/backups                          Create timestamped backup
    POST   /api/backups/restore                  Restore from a backup file

ERROR MAPPING:
  400: validation failures, no tax config
  404: unknown product
  409: insufficient stock
  422: corrupt store file on restore
  500: everything else
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mow/finance-engine/ledger"
	"github.com/mow/finance-engine/store/sqlite"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *ledger.Engine
	Compiler *ledger.Compiler
	Exporter ledger.StatementExporter
	Log      *logrus.Logger

	BackupDir string

	validate *validator.Validate
}

// NewHandler creates a handler wired to the given store and collaborators.
func NewHandler(store *sqlite.Store, engine *ledger.Engine, exporter ledger.StatementExporter, backupDir string, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		Store:     store,
		Engine:    engine,
		Compiler:  ledger.NewCompiler(store),
		Exporter:  exporter,
		Log:       log,
		BackupDir: backupDir,
		validate:  validator.New(),
	}
}

// =============================================================================
// PRODUCT ENDPOINTS
// =============================================================================

// ListProducts returns all products ordered by name.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.Products(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to list products")
		return
	}
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct registers a new product.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	cost, err := parseMoney("cost", req.Cost)
	if err != nil {
		h.writeError(w, err, "Invalid cost")
		return
	}
	price, err := parseMoney("price", req.Price)
	if err != nil {
		h.writeError(w, err, "Invalid price")
		return
	}

	product, err := h.Engine.AddProduct(r.Context(), ledger.NewProduct{
		Code:         req.Code,
		Name:         req.Name,
		Cost:         cost,
		Price:        price,
		InitialStock: req.InitialStock,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		h.writeError(w, err, "Failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

// ListLowStock returns products at or below their reorder level.
// GET /api/products/low-stock
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.LowStock(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to list low-stock products")
		return
	}
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdatePrice changes a product's current sale price.
// PUT /api/products/{code}/price
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req UpdatePriceRequest
	if !h.decode(w, r, &req) {
		return
	}
	price, err := parseMoney("price", req.Price)
	if err != nil {
		h.writeError(w, err, "Invalid price")
		return
	}
	product, err := h.Engine.UpdatePrice(r.Context(), code, price)
	if err != nil {
		h.writeError(w, err, "Failed to update price")
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// ArchiveProduct soft-archives a product.
// POST /api/products/{code}/archive
func (h *Handler) ArchiveProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.Engine.ArchiveProduct(r.Context(), code); err != nil {
		h.writeError(w, err, "Failed to archive product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// POSTING ENDPOINTS
// =============================================================================

// PostPurchase posts an inventory purchase.
// POST /api/purchases
func (h *Handler) PostPurchase(w http.ResponseWriter, r *http.Request) {
	var req PostPurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	unitCost, err := parseMoney("unit_cost", req.UnitCost)
	if err != nil {
		h.writeError(w, err, "Invalid unit cost")
		return
	}
	at, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err, "Invalid date")
		return
	}

	product, err := h.Engine.PostPurchase(r.Context(), req.ProductCode, req.Quantity, unitCost, at)
	if err != nil {
		h.writeError(w, err, "Failed to post purchase")
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

// PostAdjustment posts a signed stock adjustment.
// POST /api/adjustments
func (h *Handler) PostAdjustment(w http.ResponseWriter, r *http.Request) {
	var req PostAdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	at, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err, "Invalid date")
		return
	}

	product, err := h.Engine.PostAdjustment(r.Context(), req.ProductCode, req.Quantity, at)
	if err != nil {
		h.writeError(w, err, "Failed to post adjustment")
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

// PostSale posts a sale and emits its tax invoice.
// POST /api/sales
func (h *Handler) PostSale(w http.ResponseWriter, r *http.Request) {
	var req PostSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	at, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err, "Invalid date")
		return
	}

	order := ledger.SaleOrder{
		ProductCode: req.ProductCode,
		Quantity:    req.Quantity,
		At:          at,
	}
	if req.UnitPrice != nil {
		price, err := parseMoney("unit_price", *req.UnitPrice)
		if err != nil {
			h.writeError(w, err, "Invalid unit price")
			return
		}
		order.PriceOverride = &price
	}

	sale, err := h.Engine.PostSale(r.Context(), order)
	if err != nil {
		h.writeError(w, err, "Failed to post sale")
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// ListRecentSales returns the most recent sales, newest first.
// GET /api/sales?limit=50
func (h *Handler) ListRecentSales(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, &ledger.ValidationError{Field: "limit", Reason: "must be a positive integer"}, "Invalid limit")
			return
		}
		limit = n
	}

	sales, err := h.Store.RecentSales(r.Context(), limit)
	if err != nil {
		h.writeError(w, err, "Failed to list sales")
		return
	}
	dtos := make([]SaleDTO, 0, len(sales))
	for _, s := range sales {
		dtos = append(dtos, toSaleDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TAX ENDPOINTS
// =============================================================================

// GetTaxRates returns the rates currently in force.
// GET /api/taxes
func (h *Handler) GetTaxRates(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Engine.Taxes().Current(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get tax rates")
		return
	}
	writeJSON(w, http.StatusOK, toTaxRatesDTO(cfg))
}

// UpdateTaxRates appends a new rate config.
// PUT /api/taxes
func (h *Handler) UpdateTaxRates(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaxRatesRequest
	if !h.decode(w, r, &req) {
		return
	}
	vat, err := parseMoney("vat_rate", req.VATRate)
	if err != nil {
		h.writeError(w, err, "Invalid VAT rate")
		return
	}
	incomeTax, err := parseMoney("income_tax_rate", req.IncomeTaxRate)
	if err != nil {
		h.writeError(w, err, "Invalid income tax rate")
		return
	}
	effective, err := parseDate(req.EffectiveFrom)
	if err != nil {
		h.writeError(w, err, "Invalid effective date")
		return
	}

	cfg, err := h.Engine.UpdateTaxRates(r.Context(), vat, incomeTax, effective)
	if err != nil {
		h.writeError(w, err, "Failed to update tax rates")
		return
	}
	writeJSON(w, http.StatusOK, toTaxRatesDTO(cfg))
}

// =============================================================================
// STATEMENT ENDPOINTS
// =============================================================================

// GetMonthlySummary compiles the combined monthly statement view.
// GET /api/statements/{year}/{month}
func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.parseYearMonth(w, r)
	if !ok {
		return
	}

	summary, err := h.Compiler.Monthly(r.Context(), year, month)
	if err != nil {
		h.writeError(w, err, "Failed to compile statements")
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryDTO(summary))
}

// ExportStatements streams the monthly statements as an xlsx workbook.
// GET /api/statements/{year}/{month}/export
func (h *Handler) ExportStatements(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.parseYearMonth(w, r)
	if !ok {
		return
	}

	bundle, err := h.Compiler.Bundle(r.Context(), ledger.MonthlyPeriod(year, month))
	if err != nil {
		h.writeError(w, err, "Failed to compile statements")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=statements_%04d_%02d.xlsx", year, int(month)))
	if err := h.Exporter.Export(w, bundle); err != nil {
		h.Log.WithError(err).Error("statement export failed")
	}
}

func (h *Handler) parseYearMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1970 {
		h.writeError(w, &ledger.ValidationError{Field: "year", Reason: "must be a four-digit year"}, "Invalid year")
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		h.writeError(w, &ledger.ValidationError{Field: "month", Reason: "must be 1-12"}, "Invalid month")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// =============================================================================
// BACKUP ENDPOINTS
// =============================================================================

// CreateBackup copies the store to a timestamp-named file.
// POST /api/backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.Store.Backup(r.Context(), h.BackupDir)
	if err != nil {
		h.writeError(w, err, "Backup failed")
		return
	}
	h.Log.WithField("path", path).Info("backup created")
	writeJSON(w, http.StatusCreated, BackupResponse{Path: path})
}

// RestoreBackup replaces the active store with a prior backup file.
// POST /api/backups/restore
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Store.Restore(r.Context(), req.Path); err != nil {
		h.writeError(w, err, "Restore failed")
		return
	}
	h.Log.WithField("path", req.Path).Info("store restored")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false when the payload is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case ledger.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrCorruptStore):
		status = http.StatusUnprocessableEntity
	case ledger.IsClientError(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeJSON(w, status, ErrorResponse{Error: message, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
