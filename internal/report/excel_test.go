package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

func strPtr(s string) *string { return &s }

func TestWriteExpenses(t *testing.T) {
	approvedAt := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	rows := []entity.ExpenseWithOwner{
		{
			Expense: entity.Expense{
				ID:         "exp-1",
				Amount:     decimal.RequireFromString("42.50"),
				Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Vendor:     strPtr("Starbucks"),
				Status:     entity.StatusApproved,
				ApprovedAt: &approvedAt,
				ApprovedBy: strPtr("admin-1"),
				CreatedAt:  approvedAt,
			},
			OwnerEmail: "ana@example.com",
			OwnerRole:  entity.RoleEmployee,
		},
		{
			Expense: entity.Expense{
				ID:              "exp-2",
				Amount:          decimal.RequireFromString("15"),
				Date:            time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
				Status:          entity.StatusRejected,
				RejectionReason: strPtr("duplicate"),
				CreatedAt:       approvedAt,
			},
			OwnerEmail: "bo@example.com",
			OwnerRole:  entity.RoleEmployee,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExpenses(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, _ := f.GetCellValue(SheetName, "A1")
	assert.Equal(t, "ID", header)

	email, _ := f.GetCellValue(SheetName, "B2")
	assert.Equal(t, "ana@example.com", email)

	date, _ := f.GetCellValue(SheetName, "D2")
	assert.Equal(t, "2024-03-01", date)

	vendor, _ := f.GetCellValue(SheetName, "E2")
	assert.Equal(t, "Starbucks", vendor)

	amount, _ := f.GetCellValue(SheetName, "H2", excelize.Options{RawCellValue: true})
	assert.Equal(t, "42.5", amount)

	reason, _ := f.GetCellValue(SheetName, "J3")
	assert.Equal(t, "duplicate", reason)

	label, _ := f.GetCellValue(SheetName, "G4")
	assert.Equal(t, "Total", label)

	formula, err := f.GetCellFormula(SheetName, "H4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(H2:H3)", formula)
}

func TestWriteExpenses_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpenses(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][6])
}
