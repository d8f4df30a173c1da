/*
Package report implements the reporting collaborators the ledger core
calls through capability interfaces: per-sale CSV tax invoices and
spreadsheet statement export.
*/
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mow/finance-engine/ledger"
)

// invoiceHeader is the fixed column order for tax invoice rows.
var invoiceHeader = []string{"Date", "Product", "Quantity", "Unit Price", "Revenue", "VAT", "Total"}

// =============================================================================
// CSV INVOICE WRITER (ledger.InvoiceSink)
// =============================================================================

// CSVInvoiceWriter writes one invoice file per posted sale under Dir,
// named invoice_<product code>_<timestamp>.csv.
type CSVInvoiceWriter struct {
	Dir string
}

func NewCSVInvoiceWriter(dir string) *CSVInvoiceWriter {
	return &CSVInvoiceWriter{Dir: dir}
}

// Emit implements ledger.InvoiceSink.
func (w *CSVInvoiceWriter) Emit(_ context.Context, inv ledger.Invoice) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create invoice dir: %w", err)
	}

	name := fmt.Sprintf("invoice_%s_%s.csv", inv.ProductCode, inv.Date.UTC().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(w.Dir, name))
	if err != nil {
		return fmt.Errorf("failed to create invoice file: %w", err)
	}

	if err := WriteInvoice(f, inv); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteInvoice writes the header and the invoice row to w.
func WriteInvoice(w io.Writer, inv ledger.Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(invoiceHeader); err != nil {
		return err
	}
	if err := cw.Write(invoiceRow(inv)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func invoiceRow(inv ledger.Invoice) []string {
	return []string{
		inv.Date.UTC().Format(time.DateOnly),
		inv.ProductName,
		strconv.FormatInt(inv.Quantity, 10),
		inv.UnitPrice.String(),
		inv.Revenue.String(),
		inv.VAT.String(),
		inv.Total.String(),
	}
}
