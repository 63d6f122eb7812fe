// =============================================================================
// SAP Account Items Updater - Remote Session Adapter
// =============================================================================
//
// This package defines the capability surface over a live SAP GUI session.
// The engine never talks to the GUI scripting host directly; it drives the
// screens exclusively through the Session interface defined here.
//
// CAPABILITY SET:
//   - Transaction lifecycle: StartTransaction / EndTransaction
//   - Form fields: SetField / ReadField / FieldExists / SelectRadio
//   - Discrete commands: PressButton / SendKey (virtual function keys)
//   - Modal dialogs: IsModalOpen / ResolveModal
//   - Multi-value picker: BulkInsertValues (clipboard-mediated)
//   - Status line: ReadStatusLine (the only feedback channel for bulk loads)
//   - Result grids: ItemGrid / FilterGrid
//   - Local file export: ExportGridToFile
//
// The adapter is deliberately thin: it exposes single screen interactions,
// never sequences of them. Sequencing and error classification belong to
// the engine.
//
// =============================================================================

package session

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFieldNotPresent is returned when a named form field does not exist
	// in the currently displayed screen.
	ErrFieldNotPresent = errors.New("field not present in the current screen")

	// ErrFolderNotFound is returned by ExportGridToFile when the destination
	// directory does not exist on the exporting host.
	ErrFolderNotFound = errors.New("export folder not found")
)

// =============================================================================
// VIRTUAL KEYS
// =============================================================================

// Key is a SAP GUI virtual key code. Screen transitions happen only through
// these discrete commands; there is no other way to advance the session.
type Key int

// Virtual key codes as defined by the SAP GUI scripting interface.
const (
	KeyEnter       Key = 0
	KeyF2          Key = 2
	KeyF3          Key = 3
	KeyF4          Key = 4
	KeyF6          Key = 6
	KeyF8          Key = 8
	KeyF9          Key = 9
	KeyCtrlS       Key = 11
	KeyF12         Key = 12
	KeyShiftF1     Key = 13
	KeyShiftF2     Key = 14
	KeyShiftF4     Key = 16
	KeyShiftF12    Key = 24
	KeyCtrlF1      Key = 25
	KeyCtrlF8      Key = 32
	KeyCtrlShiftF2 Key = 38
	KeyCtrlShiftF6 Key = 42
)

// =============================================================================
// GRID INTERFACE
// =============================================================================

// Grid is a handle to a result table displayed in the session: either the
// loaded line item grid or the filter criteria list inside the filter
// dialog. Rows are addressed by zero-based index.
type Grid interface {
	// RowCount returns the number of rows currently displayed.
	RowCount() (int, error)

	// CellValue returns the displayed text of one cell, addressed by row
	// index and technical column name (e.g. "SGTXT", "ZUONR", "FIELDNAME").
	CellValue(row int, column string) (string, error)

	// SelectRow marks a row as the selected and current row. Row edit
	// commands operate on the selected row.
	SelectRow(row int) error
}

// =============================================================================
// SESSION INTERFACE
// =============================================================================

// Session is one live interactive SAP GUI session. At most one transaction
// context may be open against it at a time; opening a second one implicitly
// requires ending the first. The handle is created and torn down by the
// orchestration layer and outlives any engine bound to it.
//
// Implementations are not safe for concurrent use. The shared clipboard
// used by BulkInsertValues is a process-wide resource on the scripting
// host; callers must serialize access to a session.
type Session interface {
	// StartTransaction opens the named transaction (e.g. "FBL3N").
	StartTransaction(code string) error

	// EndTransaction closes the currently open transaction context.
	EndTransaction() error

	// SetField writes a value into a named form field. Returns
	// ErrFieldNotPresent if the field does not exist in the current screen.
	SetField(name, value string) error

	// ReadField returns the currently displayed text of a named field.
	ReadField(name string) (string, error)

	// FieldExists reports whether a named field is present in the current
	// screen. Used to probe optional fields before writing them.
	FieldExists(name string) bool

	// SelectRadio selects a named radio button option.
	SelectRadio(name string) error

	// PressButton presses a named button in the active window.
	PressButton(name string) error

	// SendKey simulates a single virtual key press in the main window.
	SendKey(key Key) error

	// IsModalOpen reports whether a blocking dialog is currently displayed.
	IsModalOpen() bool

	// ResolveModal dismisses a blocking dialog by invoking its affirmative
	// (confirm=true) or negative (confirm=false) action. Informational
	// one-button dialogs only honor the affirmative action.
	ResolveModal(confirm bool) error

	// BulkInsertValues inserts an ordered sequence of values into the
	// currently open multi-value picker: it clears any pre-existing values,
	// stages the values through the shared clipboard, confirms the paste
	// and confirms the picker. The clipboard is cleared afterwards so user
	// data never stays resident in the shared medium beyond one operation.
	BulkInsertValues(values []string) error

	// ReadStatusLine returns the free-text status bar message. A failed
	// read is the only way a dead session surfaces after a load command.
	ReadStatusLine() (string, error)

	// ItemGrid returns a handle to the loaded line item grid.
	ItemGrid() (Grid, error)

	// FilterGrid returns a handle to the filter criteria table shown in
	// the filter definition dialog.
	FilterGrid() (Grid, error)

	// ExportGridToFile writes the currently displayed grid to a local file
	// on the exporting host via the "local file" export dialog. The
	// encoding is a SAP encoding code (e.g. "4120" for UTF-8). Returns
	// ErrFolderNotFound if the destination directory does not exist.
	ExportGridToFile(dir, filename, encoding string) error
}
