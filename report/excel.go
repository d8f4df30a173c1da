package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mow/finance-engine/ledger"
)

// Sheet names in the exported workbook, one per statement.
const (
	SheetPnL      = "P&L"
	SheetBalance  = "Balance"
	SheetCashFlow = "CashFlow"
)

// =============================================================================
// EXCEL STATEMENT EXPORTER (ledger.StatementExporter)
// =============================================================================

// ExcelExporter renders a compiled statement bundle to an xlsx workbook:
// one sheet per statement, period boundaries in the header row.
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Export implements ledger.StatementExporter.
func (e *ExcelExporter) Export(w io.Writer, b ledger.StatementBundle) error {
	f := excelize.NewFile()
	defer f.Close()

	header := periodHeader(b.Period)

	if err := writeSheet(f, SheetPnL, header, [][2]any{
		{"Revenue", cell(b.PnL.Revenue)},
		{"Cost of Goods Sold", cell(b.PnL.COGS)},
		{"Gross Profit", cell(b.PnL.GrossProfit)},
		{"VAT Collected", cell(b.PnL.VAT)},
		{"Income Tax", cell(b.PnL.IncomeTax)},
		{"Net Profit", cell(b.PnL.NetProfit)},
	}); err != nil {
		return err
	}

	if err := writeSheet(f, SheetBalance, header, [][2]any{
		{"Inventory Value", cell(b.Balance.InventoryValue)},
		{"Cash Position", cell(b.Balance.CashPosition)},
		{"Total Assets", cell(b.Balance.TotalAssets)},
		{"Tax Liability", cell(b.Balance.TaxLiability)},
		{"Equity", cell(b.Balance.Equity)},
	}); err != nil {
		return err
	}

	if err := writeSheet(f, SheetCashFlow, header, [][2]any{
		{"Cash In", cell(b.Cash.CashIn)},
		{"Cash Out", cell(b.Cash.CashOut)},
		{"Net Change", cell(b.Cash.NetChange)},
	}); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by P&L.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(SheetPnL)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	return f.Write(w)
}

func periodHeader(p ledger.Period) string {
	return fmt.Sprintf("Period %s to %s",
		p.Start.UTC().Format(time.DateOnly),
		p.End.UTC().Format(time.DateOnly))
}

func writeSheet(f *excelize.File, sheet, header string, rows [][2]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", header); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A2", "Metric"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B2", "Amount"); err != nil {
		return err
	}
	for i, row := range rows {
		rowNo := i + 3
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNo), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNo), row[1]); err != nil {
			return err
		}
	}
	return nil
}

// cell renders a decimal for a spreadsheet cell. Values are exported as
// floats; the decimal string is exact but renders as text in most viewers.
func cell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
