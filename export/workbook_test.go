package export_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/export"
	"github.com/warp/studio-payroll/payroll"
	"github.com/xuri/excelize/v2"
)

func TestWrite_MonthlyReport(t *testing.T) {
	// GIVEN: a report with two instructors
	month := payroll.MustParseMonth("2026-02")
	report := payroll.NewMonthlyReport(month, []payroll.MonthlyPayrollSummary{
		{
			Month: month, InstructorID: "i1", InstructorName: "Amy", ClassCount: 2, StudentCount: 15,
			AttendancePay: decimal.NewFromInt(1700), SalesBonus: decimal.NewFromInt(200), TotalPay: decimal.NewFromInt(1900),
		},
		{
			Month: month, InstructorID: "i2", InstructorName: "Bea",
			AttendancePay: decimal.Zero, SalesBonus: decimal.Zero, TotalPay: decimal.Zero,
		},
	})

	// WHEN
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, report))

	// THEN: the workbook reads back
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2026-02"}, f.GetSheetList())

	cell := func(ref string) string {
		v, err := f.GetCellValue("2026-02", ref, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	money := func(ref string) float64 {
		v, err := strconv.ParseFloat(cell(ref), 64)
		require.NoError(t, err, ref)
		return v
	}

	assert.Equal(t, "Instructor ID", cell("A1"))
	assert.Equal(t, "Total Pay", cell("G1"))
	assert.Equal(t, "i1", cell("A2"))
	assert.Equal(t, "Amy", cell("B2"))
	assert.Equal(t, "2", cell("C2"))
	assert.Equal(t, "15", cell("D2"))
	assert.Equal(t, 1900.0, money("G2"))
	assert.Equal(t, "Bea", cell("B3"))
	assert.Equal(t, "Total", cell("A4"))
	assert.Equal(t, "2", cell("C4"))
	assert.Equal(t, 1900.0, money("G4"))
}

func TestWrite_EmptyReport(t *testing.T) {
	month := payroll.MustParseMonth("2026-03")

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, payroll.NewMonthlyReport(month, nil)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("2026-03", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
	assert.Equal(t, "payroll-2026-03.xlsx", export.Filename(month))
}
