// =============================================================================
// SAP Account Items Updater - Request Parsing & Validation
// =============================================================================
//
// This package turns one inbound user message into a validated processing
// batch:
//
//   - the "Company code: NNNN" pattern is extracted from the message body
//     (case-insensitive)
//   - the spreadsheet attachment is parsed with a fixed column order:
//     account, old_text, new_text, new_assignment
//   - the batch is validated and classified into one of the two account
//     domains by account digit length
//
// All validation here happens before the engine ever touches the session;
// a rejected batch causes an error notification, never a partial run.
//
// =============================================================================

package request

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tomaskral78/sap-items-updater/internal/engine"
	"github.com/tomaskral78/sap-items-updater/internal/profile"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCompanyCode is returned when the message body contains no valid
	// "Company code: NNNN" line.
	ErrNoCompanyCode = errors.New("the message contains no valid company code")

	// ErrNoNewValues is returned when the attachment carries no entries in
	// either the 'New Text' or the 'New Assignment' column.
	ErrNoNewValues = errors.New("the supplied data contains no entries in the 'New Text' and 'New Assignment' columns")

	// ErrNoOldText is returned when the 'Old Text' column is entirely empty.
	ErrNoOldText = errors.New("the supplied data contains no entries in the 'Old Text' column")

	// ErrDuplicateOldText is returned when two rows share the same old text
	// value; old text values key the change requests and must be unique.
	ErrDuplicateOldText = errors.New("duplicate 'Old Text' value")

	// ErrEmptyWorkbook is returned when the attachment holds no data rows.
	ErrEmptyWorkbook = errors.New("the supplied attachment contains no data records")
)

// companyCodePattern matches the processing parameter in the message body.
var companyCodePattern = regexp.MustCompile(`(?im)company code:\s*(\d{4})`)

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Row is one record of the user-supplied change spreadsheet. NewText and
// NewAssignment are nil when the cell was left empty. Message is filled
// from the processing outcome before reporting.
type Row struct {
	Account       string
	OldText       string
	NewText       *string
	NewAssignment *string
	Message       string
}

// Batch is one validated processing unit: the parsed rows, the distinct
// account identifiers in input order, the change request mapping keyed by
// old text, and the account domain profile detected from the identifiers.
type Batch struct {
	CompanyCode string
	Rows        []Row
	Accounts    []string
	Requests    map[string]engine.ChangeRequest
	Profile     profile.Profile
}

// =============================================================================
// COMPANY CODE EXTRACTION
// =============================================================================

// ExtractCompanyCode pulls the four-digit company code out of the message
// body. The pattern is matched case-insensitively anywhere in the text.
func ExtractCompanyCode(body string) (string, error) {
	match := companyCodePattern.FindStringSubmatch(body)
	if match == nil {
		return "", ErrNoCompanyCode
	}
	return match[1], nil
}

// =============================================================================
// WORKBOOK PARSING
// =============================================================================

// Column positions of the fixed attachment layout.
const (
	colAccount = iota
	colOldText
	colNewText
	colNewAssignment
)

// ParseWorkbook reads the change spreadsheet from attachment bytes. The
// first sheet is used; the first row is the header and is skipped. Rows
// with no content at all are ignored.
func ParseWorkbook(data []byte) ([]Row, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open the attachment workbook: %w", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("the attachment workbook contains no sheets")
	}

	records, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var rows []Row
	for idx, record := range records {
		if idx == 0 {
			continue // header row
		}
		if isEmptyRecord(record) {
			continue
		}

		row := Row{
			Account:       cell(record, colAccount),
			OldText:       cell(record, colOldText),
			NewText:       optionalCell(record, colNewText),
			NewAssignment: optionalCell(record, colNewAssignment),
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	return rows, nil
}

// cell returns the trimmed value at position col, or "" past the record end.
func cell(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// optionalCell returns nil for an empty cell, matching the nullable text
// columns of the attachment contract.
func optionalCell(record []string, col int) *string {
	value := cell(record, col)
	if value == "" {
		return nil
	}
	return &value
}

// isEmptyRecord reports whether every cell of the record is blank.
func isEmptyRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// BATCH VALIDATION
// =============================================================================

// BuildBatch validates parsed rows and assembles the processing batch.
//
// REJECTIONS:
//   - every 'New Text' and 'New Assignment' cell empty (the user sent an
//     unfilled template)
//   - every 'Old Text' cell empty
//   - duplicate old text values
//   - non-numeric account identifiers
//   - oversized values (text > 50 chars, assignment > 18 chars)
//   - account identifiers mixing two digit lengths (profile detection)
func BuildBatch(companyCode string, rows []Row) (*Batch, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	anyNew := false
	anyOld := false
	requests := make(map[string]engine.ChangeRequest, len(rows))
	var accounts []string
	seenAccounts := make(map[string]struct{})

	for idx, row := range rows {
		line := idx + 2 // 1-based, after the header row

		if _, err := strconv.ParseUint(row.Account, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: %q (row %d)", engine.ErrInvalidAccount, row.Account, line)
		}
		if _, seen := seenAccounts[row.Account]; !seen {
			seenAccounts[row.Account] = struct{}{}
			accounts = append(accounts, row.Account)
		}

		if row.OldText != "" {
			anyOld = true
			if len(row.OldText) > engine.MaxTextLength {
				return nil, &engine.ValueTooLongError{Field: "Old Text", Max: engine.MaxTextLength, Value: row.OldText}
			}
			if _, dup := requests[row.OldText]; dup {
				return nil, fmt.Errorf("%w: %q (row %d)", ErrDuplicateOldText, row.OldText, line)
			}
		}

		if row.NewText != nil {
			anyNew = true
			if len(*row.NewText) > engine.MaxTextLength {
				return nil, &engine.ValueTooLongError{Field: "New Text", Max: engine.MaxTextLength, Value: *row.NewText}
			}
		}
		if row.NewAssignment != nil {
			anyNew = true
			if len(*row.NewAssignment) > engine.MaxAssignmentLength {
				return nil, &engine.ValueTooLongError{Field: "New Assignment", Max: engine.MaxAssignmentLength, Value: *row.NewAssignment}
			}
		}

		if row.OldText != "" {
			requests[row.OldText] = engine.ChangeRequest{
				NewText:       row.NewText,
				NewAssignment: row.NewAssignment,
			}
		}
	}

	if !anyNew {
		return nil, ErrNoNewValues
	}
	if !anyOld {
		return nil, ErrNoOldText
	}

	prof, err := profile.Detect(accounts)
	if err != nil {
		return nil, err
	}

	return &Batch{
		CompanyCode: companyCode,
		Rows:        rows,
		Accounts:    accounts,
		Requests:    requests,
		Profile:     prof,
	}, nil
}

// =============================================================================
// OUTCOME MERGING
// =============================================================================

// ApplyOutcomes copies the per-entry outcome messages back onto the rows
// they originated from, keyed by old text value.
func ApplyOutcomes(rows []Row, outcomes map[string]engine.ChangeOutcome) {
	for idx := range rows {
		if outcome, ok := outcomes[rows[idx].OldText]; ok {
			rows[idx].Message = outcome.Message
		}
	}
}
