package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

const defaultSheet = "Sheet1"

// XLSXExporter writes one sheet per semester
type XLSXExporter struct {
	opts Options
}

func (e *XLSXExporter) Format() string { return FormatXLSX }

func (e *XLSXExporter) FileName(now time.Time) string {
	return FileName(e.opts.AcademicYear, "xlsx", e.opts.LegacyName, now)
}

// SheetName returns the sheet holding a semester's courses
func SheetName(semester int) string {
	return fmt.Sprintf("Semester %d", semester)
}

func (e *XLSXExporter) header() []interface{} {
	header := []interface{}{"Code", "Units", "Name"}
	if e.opts.Detailed {
		header = append(header, "Faculty", "Department")
	}
	return header
}

// Export writes the workbook
func (e *XLSXExporter) Export(w io.Writer, g catalog.Grouping) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	header := e.header()
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return errors.Wrap(err, "naming header columns")
	}

	for _, semester := range catalog.Semesters {
		sheet := SheetName(semester)
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "creating sheet %s", sheet)
		}

		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return errors.Wrapf(err, "writing %s header", sheet)
		}
		if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
			return errors.Wrapf(err, "styling %s header", sheet)
		}

		for i, r := range g.Records(semester) {
			row := e.row(r)
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return errors.Wrapf(err, "addressing %s row %d", sheet, i+2)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return errors.Wrapf(err, "writing %s row %d", sheet, i+2)
			}
		}

		_ = f.SetColWidth(sheet, "A", "A", 12)
		_ = f.SetColWidth(sheet, "C", "C", 60)
		if e.opts.Detailed {
			_ = f.SetColWidth(sheet, "D", "E", 30)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}
	if idx, err := f.GetSheetIndex(SheetName(catalog.Semesters[0])); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	return f.Write(w)
}

func (e *XLSXExporter) row(r catalog.Record) []interface{} {
	row := []interface{}{
		strings.TrimSpace(r.ModuleCode),
		units(r),
		strings.TrimSpace(r.Title),
	}
	if e.opts.Detailed {
		row = append(row, strings.TrimSpace(r.Faculty), strings.TrimSpace(r.Department))
	}
	return row
}

// units returns the credit as a number, or the trimmed raw text when it is not one
func units(r catalog.Record) interface{} {
	raw := strings.TrimSpace(r.ModuleCredit)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.IncrCounter("export.non_numeric_units")
		logger.Warn("Non-numeric module credit", logger.Fields{
			"module":        r.ModuleCode,
			"module_credit": r.ModuleCredit,
		})
		return raw
	}
	return v
}
