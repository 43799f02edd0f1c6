// =============================================================================
// Loan Anomaly Detector - Workbook Augmenter
// =============================================================================
//
// This module builds large load-test workbooks from a small sample. The
// header of the source sheet is copied once and its data rows are repeated
// in order until the target holds the requested number of data rows.
//
//   source: header, r1, r2, r3        rows: 7
//   target: header, r1, r2, r3, r1, r2, r3, r1
//
// Every row is padded or cut to the width of the header. Numeric cells stay
// numeric so serial dates survive the copy.
//
// =============================================================================

package augment

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
	"github.com/ginjaninja78/loan-anomaly-detector/pkg/utils"
)

// DefaultRows is the default number of data rows to generate.
const DefaultRows = 100000

// TargetSheet is the sheet name of generated workbooks.
const TargetSheet = "Sheet1"

const progressEvery = 10000

// ErrNoDataRows is returned when the source sheet has a header only.
var ErrNoDataRows = errors.New("source sheet has no data rows")

// Expand writes target with the header of source followed by rows data
// rows cycled from source. It returns the number of data rows written.
func Expand(source, target string, rows int, log logrus.FieldLogger) (int, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if rows < 0 {
		return 0, fmt.Errorf("row count must not be negative, got %d", rows)
	}

	header, data, err := readSheet(source)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 && rows > 0 {
		return 0, ErrNoDataRows
	}

	if err := utils.EnsureParentDir(target); err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(TargetSheet)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return i, err
		}
		if err := sw.SetRow(cell, data[i%len(data)]); err != nil {
			return i, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		if (i+1)%progressEvery == 0 {
			log.WithField("rows", i+1).Debug("Augmenting workbook")
		}
	}

	if err := sw.Flush(); err != nil {
		return rows, fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := f.SaveAs(target); err != nil {
		return rows, fmt.Errorf("failed to save workbook: %w", err)
	}

	log.WithFields(logrus.Fields{
		"source":      source,
		"target":      target,
		"rows":        rows,
		"sample_rows": len(data),
	}).Info("Workbook augmented")

	return rows, nil
}

// readSheet returns the header and the data rows of the active sheet, each
// row fitted to the header width.
func readSheet(path string) ([]any, [][]any, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, nil, fmt.Errorf("failed to open workbook: no active sheet")
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	defer rows.Close()

	var (
		header []any
		data   [][]any
		width  int
	)
	for rows.Next() {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
		}

		if header == nil {
			width = len(cells)
			header = fit(cells, width)
			continue
		}
		if loan.IsBlankRow(cells) {
			continue
		}
		data = append(data, fit(cells, width))
	}
	if err := rows.Error(); err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("sheet '%s' is empty", sheet)
	}

	return header, data, nil
}

// fit pads or cuts cells to width. Numeric text becomes a number.
func fit(cells []string, width int) []any {
	out := make([]any, width)
	for i := range out {
		if i >= len(cells) {
			out[i] = ""
			continue
		}
		if n, err := strconv.ParseFloat(cells[i], 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			out[i] = n
			continue
		}
		out[i] = cells[i]
	}
	return out
}
