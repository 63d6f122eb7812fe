// =============================================================================
// SAP Account Items Updater - Item Update Engine
// =============================================================================
//
// The Updater drives the edit/compare/commit sequence over the loaded line
// item grid:
//
//   1. Start          - bind the transaction (idempotent re-entry)
//   2. SetAccounts    - company code + explicit accounts or worklist
//   3. SetSelectionStatus
//   4. LoadItems      - execute, classify the status line
//   5. ApplyTextFilter - narrow the grid to the requested old text values
//   6. IterateAndUpdate - per row: compare, edit, commit
//   7. Finish         - back to the main screen
//   8. Close          - end the transaction context
//
// ModifyItems runs the whole sequence. All errors are terminal for the
// invocation; recovery is re-running the workflow. There is no rollback of
// already committed rows.
//
// IDEMPOTENCE:
//   An item whose current text and assignment already equal the requested
//   values is never touched. Re-running with identical inputs after a
//   successful pass performs zero field writes.
//
// =============================================================================

package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/internal/session"
)

// Filter dialog button names. The value picker button inside the filter
// value editor differs from the account picker on the selection screen.
const (
	btnAddFilterCriterion = "APP_WL_SING"
	btnDefineFilterValues = "600_BUTTON"
	btnFilterValuePicker  = "%_%%DYN001_%_APP_%-VALU_PUSH"

	// Column holding technical field names in the filter criteria table.
	colFilterFieldName = "FIELDNAME"
)

// =============================================================================
// UPDATER STRUCTURE
// =============================================================================

// Updater is the Item Update Engine for one invocation. It owns explicit
// instance state and must not be shared; create one per call with the
// session injected.
type Updater struct {
	driver
}

// NewUpdater creates an update engine bound to a session and a transaction
// profile. The layout names the result grid column arrangement; pass ""
// for the transaction default. A nil logger falls back to slog.Default.
func NewUpdater(sess session.Session, p profile.Profile, layout string, log *slog.Logger) *Updater {
	return &Updater{driver: newDriver(sess, p, layout, log)}
}

// =============================================================================
// FILTERING
// =============================================================================

// ApplyTextFilter narrows the loaded grid to rows whose text field equals
// one of the given values. It walks the filter definition dialog: toggle
// technical names, locate the text field among the filter criteria, add it,
// open its value editor and bulk-insert the values.
//
// If no rows survive the filter, the engine returns to the main screen and
// reports ErrNoMatchingItems: items existed on the account(s) but none
// matched the requested text values.
func (u *Updater) ApplyTextFilter(grid session.Grid, values []string) error {
	if !u.bound {
		return ErrUnboundSession
	}

	// Open the filter definition dialog and switch to technical names.
	if err := u.sess.SendKey(session.KeyCtrlShiftF2); err != nil {
		return fmt.Errorf("failed to open the filter dialog: %w", err)
	}
	if err := u.sess.SendKey(session.KeyCtrlShiftF6); err != nil {
		return fmt.Errorf("failed to toggle technical names: %w", err)
	}

	filters, err := u.sess.FilterGrid()
	if err != nil {
		return fmt.Errorf("could not access the filter criteria list: %w", err)
	}

	rows, err := filters.RowCount()
	if err != nil {
		return fmt.Errorf("could not read the filter criteria list: %w", err)
	}

	for idx := 0; idx < rows; idx++ {
		name, err := filters.CellValue(idx, colFilterFieldName)
		if err != nil {
			return fmt.Errorf("could not read filter criterion %d: %w", idx, err)
		}
		if name != u.profile.TextColumn {
			continue
		}
		if err := filters.SelectRow(idx); err != nil {
			return fmt.Errorf("could not select filter criterion: %w", err)
		}
		if err := u.sess.PressButton(btnAddFilterCriterion); err != nil {
			return fmt.Errorf("could not add filter criterion: %w", err)
		}
		break
	}

	// Open the value editor for the added criterion and insert the values.
	if err := u.sess.PressButton(btnDefineFilterValues); err != nil {
		return fmt.Errorf("could not open the filter value editor: %w", err)
	}
	if err := u.sess.PressButton(btnFilterValuePicker); err != nil {
		return fmt.Errorf("could not open the filter value picker: %w", err)
	}
	if err := u.sess.BulkInsertValues(values); err != nil {
		return fmt.Errorf("failed to insert filter values: %w", err)
	}
	if err := u.sess.SendKey(session.KeyEnter); err != nil {
		return fmt.Errorf("failed to confirm the filter: %w", err)
	}

	count, err := grid.RowCount()
	if err != nil {
		u.state = StateConnectionLost
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	if count == 0 {
		// Leave the empty result list before reporting the miss.
		if err := u.sess.SendKey(session.KeyF3); err != nil {
			u.log.Error("failed to return to the main screen", "error", err)
		}
		return ErrNoMatchingItems
	}

	u.state = StateFiltered
	return nil
}

// =============================================================================
// ROW ITERATION
// =============================================================================

// IterateAndUpdate walks every row of the filtered grid, compares the
// displayed text and assignment against the matching change request and
// edits only the fields that differ. Each outcome starts as "not found"
// and is overwritten when the row's text matches a request key; a row whose
// text matches no key is tolerated and left at the default.
//
// Request values are validated against the field length limits before any
// external write occurs.
func (u *Updater) IterateAndUpdate(grid session.Grid, requests map[string]ChangeRequest) (map[string]ChangeOutcome, error) {
	if !u.bound {
		return nil, ErrUnboundSession
	}

	if err := validateRequestLengths(requests); err != nil {
		return nil, err
	}

	outcomes := make(map[string]ChangeOutcome, len(requests))
	for key, req := range requests {
		outcomes[key] = ChangeOutcome{
			NewText:       req.NewText,
			NewAssignment: req.NewAssignment,
			Message:       MsgNotFound,
		}
	}

	count, err := grid.RowCount()
	if err != nil {
		u.state = StateConnectionLost
		return outcomes, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	u.state = StateIterating

	for idx := 0; idx < count; idx++ {
		if err := grid.SelectRow(idx); err != nil {
			u.state = StateConnectionLost
			return outcomes, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}

		oldText, err := grid.CellValue(idx, u.profile.TextColumn)
		if err != nil {
			u.state = StateConnectionLost
			return outcomes, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		oldAssignment, err := grid.CellValue(idx, u.profile.AssignmentColumn)
		if err != nil {
			u.state = StateConnectionLost
			return outcomes, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}

		req, ok := requests[oldText]
		if !ok {
			// Post-filter this should not occur; leave the default outcome.
			u.log.Warn("row text matches no request", "row", idx)
			continue
		}

		textDiffers := req.NewText != nil && *req.NewText != oldText
		assignDiffers := req.NewAssignment != nil && *req.NewAssignment != oldAssignment

		var phrases []string
		if req.NewText != nil && !textDiffers {
			phrases = append(phrases, MsgTextUnchanged)
		}
		if req.NewAssignment != nil && !assignDiffers {
			phrases = append(phrases, MsgAssignmentUnchanged)
		}

		if !textDiffers && !assignDiffers {
			// Nothing to do: the item already carries the desired values.
			outcomes[oldText] = ChangeOutcome{
				NewText:       req.NewText,
				NewAssignment: req.NewAssignment,
				Message:       trimJoin(phrases),
			}
			continue
		}

		// Enter row edit mode.
		if err := u.sess.SendKey(session.KeyShiftF2); err != nil {
			return outcomes, fmt.Errorf("failed to open item details: %w", err)
		}
		if err := u.sess.SendKey(session.KeyShiftF1); err != nil {
			return outcomes, fmt.Errorf("failed to enter change mode: %w", err)
		}

		if textDiffers {
			if err := u.writeText(*req.NewText); err != nil {
				return outcomes, err
			}
			phrases = append(phrases, MsgTextUpdated)
		}
		if assignDiffers {
			if err := u.writeAssignment(*req.NewAssignment); err != nil {
				return outcomes, err
			}
			phrases = append(phrases, MsgAssignmentUpdated)
		}

		if err := u.sess.SendKey(session.KeyCtrlS); err != nil {
			return outcomes, fmt.Errorf("failed to save item changes: %w", err)
		}

		outcomes[oldText] = ChangeOutcome{
			NewText:       req.NewText,
			NewAssignment: req.NewAssignment,
			Message:       trimJoin(phrases),
		}
	}

	return outcomes, nil
}

// writeText enters a new value into the item text field.
func (u *Updater) writeText(value string) error {
	if len(value) > MaxTextLength {
		return &ValueTooLongError{Field: "Text", Max: MaxTextLength, Value: value}
	}
	if err := u.sess.SetField(u.profile.TextField, value); err != nil {
		return fmt.Errorf("failed to set item text: %w", err)
	}
	return nil
}

// writeAssignment enters a new value into the assignment field. The field
// is absent on some sub-ledger screens; in that case the write is skipped
// entirely.
func (u *Updater) writeAssignment(value string) error {
	if !u.sess.FieldExists(u.profile.AssignmentField) {
		return nil
	}
	if err := u.sess.SetField(u.profile.AssignmentField, value); err != nil {
		return fmt.Errorf("failed to set item assignment: %w", err)
	}
	return nil
}

// validateRequestLengths rejects oversized values before any write.
func validateRequestLengths(requests map[string]ChangeRequest) error {
	for _, req := range requests {
		if req.NewText != nil && len(*req.NewText) > MaxTextLength {
			return &ValueTooLongError{Field: "Text", Max: MaxTextLength, Value: *req.NewText}
		}
		if req.NewAssignment != nil && len(*req.NewAssignment) > MaxAssignmentLength {
			return &ValueTooLongError{Field: "Assignment", Max: MaxAssignmentLength, Value: *req.NewAssignment}
		}
	}
	return nil
}

// =============================================================================
// COMPLETION
// =============================================================================

// Finish returns the session to the main selection screen after a completed
// update pass.
func (u *Updater) Finish() error {
	if !u.bound {
		return ErrUnboundSession
	}
	if err := u.sess.SendKey(session.KeyF3); err != nil {
		return fmt.Errorf("failed to return to the main screen: %w", err)
	}
	u.state = StateCommitted
	return nil
}

// =============================================================================
// FULL SEQUENCE
// =============================================================================

// ModifyItems runs the complete update sequence for one batch and returns
// the per-entry outcome mapping. The caller remains responsible for calling
// Close in its cleanup phase regardless of the result.
func (u *Updater) ModifyItems(sel AccountSelection, companyCode string, status ItemStatus, requests map[string]ChangeRequest) (map[string]ChangeOutcome, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("no change requests supplied")
	}
	if err := validateRequestLengths(requests); err != nil {
		return nil, err
	}

	if err := u.Start(); err != nil {
		return nil, err
	}
	if err := u.SetAccounts(sel, companyCode); err != nil {
		return nil, err
	}
	if err := u.SetSelectionStatus(status); err != nil {
		return nil, err
	}

	grid, err := u.LoadItems()
	if err != nil {
		return nil, err
	}

	// Filter on the old text values in a stable order.
	values := make([]string, 0, len(requests))
	for key := range requests {
		values = append(values, key)
	}
	sort.Strings(values)

	if err := u.ApplyTextFilter(grid, values); err != nil {
		return nil, err
	}

	outcomes, err := u.IterateAndUpdate(grid, requests)
	if err != nil {
		return outcomes, err
	}

	if err := u.Finish(); err != nil {
		return outcomes, err
	}

	return outcomes, nil
}
