package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// SheetName is the worksheet holding the exported expenses
const SheetName = "Expenses"

var headers = []string{
	"ID", "Owner Email", "Owner Role", "Date", "Vendor", "Category", "Description",
	"Amount", "Status", "Rejection Reason", "Approved At", "Approved By", "Created At",
}

// amountColumn is the 1-based column of the Amount header
const amountColumn = 8

// WriteExpenses writes rows as an xlsx workbook with a header row and a total line
func WriteExpenses(w io.Writer, rows []entity.ExpenseWithOwner) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountFormat := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, h := range headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range rows {
		row := i + 2
		amount, _ := e.Amount.Float64()
		values := []interface{}{
			e.ID,
			e.OwnerEmail,
			e.OwnerRole,
			e.DateString(),
			deref(e.Vendor),
			deref(e.Category),
			deref(e.Description),
			amount,
			e.Status,
			deref(e.RejectionReason),
			formatTime(e.ApprovedAt),
			deref(e.ApprovedBy),
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	amountCol, _ := excelize.ColumnNumberToName(amountColumn)
	totalRow := len(rows) + 2
	if err := setCell(f, amountColumn-1, totalRow, "Total"); err != nil {
		return err
	}
	totalCell := fmt.Sprintf("%s%d", amountCol, totalRow)
	if len(rows) > 0 {
		formula := fmt.Sprintf("SUM(%s2:%s%d)", amountCol, amountCol, totalRow-1)
		if err := f.SetCellFormula(SheetName, totalCell, formula); err != nil {
			return fmt.Errorf("failed to set total: %w", err)
		}
	} else if err := f.SetCellValue(SheetName, totalCell, 0); err != nil {
		return fmt.Errorf("failed to set total: %w", err)
	}
	if err := f.SetCellStyle(SheetName, amountCol+"2", totalCell, amountStyle); err != nil {
		return fmt.Errorf("failed to style amounts: %w", err)
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
