// Package export renders a month's payroll as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/warp/studio-payroll/payroll"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headings = []string{
	"Instructor ID",
	"Instructor",
	"Classes",
	"Students",
	"Attendance Pay",
	"Sales Bonus",
	"Total Pay",
}

// Filename is the attachment name for month's workbook.
func Filename(month payroll.Month) string {
	return fmt.Sprintf("payroll-%s.xlsx", month)
}

// Workbook builds one sheet named after the month: a header row, one row per
// summary, then a totals row. Money cells carry two decimals.
func Workbook(report payroll.MonthlyReport) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := report.Month.String()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		f.Close()
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, boldStyle); err != nil {
		f.Close()
		return nil, err
	}

	row := 2
	var students int
	for _, s := range report.Summaries {
		values := []any{
			string(s.InstructorID),
			s.InstructorName,
			s.ClassCount,
			s.StudentCount,
			s.AttendancePay.InexactFloat64(),
			s.SalesBonus.InexactFloat64(),
			s.TotalPay.InexactFloat64(),
		}
		if err := setRow(f, sheet, row, values); err != nil {
			f.Close()
			return nil, err
		}
		students += s.StudentCount
		row++
	}

	totals := []any{"Total", "", report.TotalClasses, students, nil, nil, report.TotalPay.InexactFloat64()}
	if err := setRow(f, sheet, row, totals); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(sheet, row, row, boldStyle); err != nil {
		f.Close()
		return nil, err
	}

	first, _ := excelize.CoordinatesToCellName(5, 2)
	last, _ := excelize.CoordinatesToCellName(7, row)
	if err := f.SetCellStyle(sheet, first, last, moneyStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "B", 22); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write streams the month's workbook to w.
func Write(w io.Writer, report payroll.MonthlyReport) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
