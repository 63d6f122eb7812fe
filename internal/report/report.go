// =============================================================================
// SAP Account Items Updater - Result Report
// =============================================================================
//
// This package renders the processing outcome into the XLSX report mailed
// back to the requesting user. The report carries the original request
// columns plus the per-entry audit message:
//
//   | Account | Old Text | New Text | New Assignment | Message |
//
// Columns are auto-sized to their content, values centered, and the header
// row highlighted (bold white on dark blue).
//
// =============================================================================

package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tomaskral78/sap-items-updater/internal/request"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFolderNotFound is returned when the report destination directory
	// does not exist.
	ErrFolderNotFound = errors.New("report destination folder not found")

	// ErrUnsupportedFormat is returned for a report path without the .xlsx
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported report file format")
)

// Fixed report column headers, in output order.
var headers = []string{"Account", "Old Text", "New Text", "New Assignment", "Message"}

// Header fill color, matching the established report style.
const headerColor = "09275E"

// =============================================================================
// REPORT GENERATION
// =============================================================================

// Write renders the processed rows into an XLSX report at the given path.
//
// PARAMETERS:
//   - path: destination .xlsx file; its directory must already exist.
//   - sheetName: name of the single report sheet; must not be empty.
//   - rows: the processed batch rows including their outcome messages.
func Write(path, sheetName string, rows []request.Row) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if sheetName == "" {
		return fmt.Errorf("sheet name cannot be an empty string")
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %q", ErrFolderNotFound, filepath.Dir(path))
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name the report sheet: %w", err)
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create the header style: %w", err)
	}

	cellStyle, err := book.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create the cell style: %w", err)
	}

	// Header row.
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := book.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write the header row: %w", err)
		}
	}

	// Data rows.
	for idx, row := range rows {
		values := rowValues(row)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, idx+2)
			if err != nil {
				return err
			}
			if err := book.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", idx+1, err)
			}
		}
	}

	// Auto-size every column to its widest value, then apply the styles.
	for col := range headers {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := book.SetColWidth(sheetName, name, name, columnWidth(col, rows)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
		if err := book.SetColStyle(sheetName, name, cellStyle); err != nil {
			return fmt.Errorf("failed to style column %s: %w", name, err)
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style the header row: %w", err)
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save the report: %w", err)
	}
	return nil
}

// rowValues maps a batch row onto the report columns.
func rowValues(row request.Row) []string {
	return []string{
		row.Account,
		row.OldText,
		stringOrEmpty(row.NewText),
		stringOrEmpty(row.NewAssignment),
		row.Message,
	}
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// columnWidth returns the width of one report column: the longest of the
// header and all values, plus one point of padding.
func columnWidth(col int, rows []request.Row) float64 {
	width := len(headers[col])
	for _, row := range rows {
		if l := len(rowValues(row)[col]); l > width {
			width = l
		}
	}
	return float64(width + 1)
}
