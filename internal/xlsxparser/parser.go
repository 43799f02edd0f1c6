// =============================================================================
// Loan Anomaly Detector - XLSX Loan Sheet Parser
// =============================================================================
//
// This module reads a loan portfolio workbook and turns each data row into a
// loan.Record. The sheet is scanned once, front to back, with the excelize
// streaming row iterator so large portfolios are never loaded as a whole.
//
// SHEET STRUCTURE (Expected Layout):
//   Row 1 holds the column labels, every following row is one loan.
//
//   | Borrower ID | Loan ID  | Loan amount | Disbursal date | Interest rate | ... | Payments                                             |
//   |-------------|----------|-------------|----------------|---------------|-----|------------------------------------------------------|
//   | 17          | 37216892 | 10000       | 2023-01-15     | 0.07          | ... | [{'Payment date': '20/09/2023', 'Repayment date': ...}] |
//
//   Labels are matched case-insensitively after trimming. Unknown columns are
//   ignored and known misspellings are resolved through header aliases.
//
// CELL VALUES:
//   Cells are read raw (no number formatting applied). A numeric cell in a
//   date column is an Excel serial date and is converted to a time.Time
//   before coercion; everything else is handed to loan.FromRow as text.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
)

// ErrNoSheet is returned when the workbook has no sheet to read.
var ErrNoSheet = errors.New("workbook has no readable sheet")

// =============================================================================
// PARSER OPTIONS
// =============================================================================

// Options control how the workbook is read.
type Options struct {
	// SheetName selects the sheet. Empty means the active sheet.
	SheetName string

	// HeaderRow is the 1-based row holding the column labels.
	// Default: 1
	HeaderRow int

	// HeaderAliases maps extra label spellings to canonical labels.
	HeaderAliases map[string]string

	// Logger receives row-level diagnostics.
	// Default: logrus.StandardLogger()
	Logger logrus.FieldLogger
}

// DefaultOptions returns the default parser options.
func DefaultOptions() Options {
	return Options{
		HeaderRow: 1,
		Logger:    logrus.StandardLogger(),
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the active sheet of an XLSX workbook.
func Parse(path string) ([]loan.Record, error) {
	return ParseWithOptions(path, DefaultOptions())
}

// ParseWithOptions reads an XLSX workbook using custom options.
//
// Rows without a borrower id or loan id are dropped. Malformed cells never
// fail the parse; they become Invalid values on the record.
func ParseWithOptions(path string, opts Options) ([]loan.Record, error) {
	if opts.HeaderRow < 1 {
		opts.HeaderRow = 1
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	defer rows.Close()

	log := opts.Logger.WithFields(logrus.Fields{"file": path, "sheet": sheet})

	var (
		headers []string
		records []loan.Record
		dropped int
		rowNum  int
	)

	for rows.Next() {
		rowNum++

		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}

		if rowNum < opts.HeaderRow {
			continue
		}
		if rowNum == opts.HeaderRow {
			headers = loan.ResolveHeaders(cells, opts.HeaderAliases)
			continue
		}

		if loan.IsBlankRow(cells) {
			continue
		}

		rec, ok := loan.FromRow(rowValues(headers, cells), rowNum)
		if !ok {
			dropped++
			log.WithField("row", rowNum).Debug("Dropping row without borrower or loan id")
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet '%s': %w", sheet, err)
	}

	if headers == nil {
		return nil, fmt.Errorf("sheet '%s' has no header row %d", sheet, opts.HeaderRow)
	}

	log.WithFields(logrus.Fields{
		"records": len(records),
		"dropped": dropped,
	}).Info("Workbook parsed")

	return records, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveSheet returns the requested sheet, or the active sheet when name is
// empty.
func resolveSheet(f *excelize.File, name string) (string, error) {
	if name == "" {
		name = f.GetSheetName(f.GetActiveSheetIndex())
		if name == "" {
			return "", ErrNoSheet
		}
		return name, nil
	}

	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return "", fmt.Errorf("sheet '%s': %w", name, ErrNoSheet)
	}
	return name, nil
}

// rowValues builds the label -> raw value map for one row, converting serial
// numbers in date columns.
func rowValues(headers []string, cells []string) map[string]any {
	row := loan.RowMap(headers, cells)
	for label, v := range row {
		if !loan.IsDateLabel(label) {
			continue
		}
		if t, ok := serialDate(v.(string)); ok {
			row[label] = t
		}
	}
	return row
}

// serialDate converts an Excel serial date such as "45077" or "45077.5".
func serialDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
