// =============================================================================
// SAP Account Items Updater - Engine Core
// =============================================================================
//
// This file holds the types shared by the Item Update Engine and the Line
// Item Exporter, and the driver with the navigation steps common to both:
//
//   Uninitialized -> Bound -> AccountsSet -> Selected -> Loaded
//
// The updater continues with Filtered -> Iterating -> Committed, the
// exporter with its layout/export sequence. Both end in Closed.
//
// The driver owns explicit instance state: one engine object per call, the
// session dependency injected at construction, nothing shared globally.
// Execution is strictly sequential; one interactive command at a time, no
// timeouts, no internal retries.
//
// =============================================================================

package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/internal/session"
)

// =============================================================================
// STATES
// =============================================================================

// State is the engine's position in the screen sequence.
type State int

const (
	StateUninitialized State = iota
	StateBound
	StateAccountsSet
	StateSelected
	StateLoaded
	StateFiltered
	StateIterating
	StateCommitted
	StateClosed

	// Error-terminal states.
	StateLoadFailed
	StateNoItemsFound
	StateConnectionLost
)

// String returns a readable state name for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBound:
		return "bound"
	case StateAccountsSet:
		return "accounts-set"
	case StateSelected:
		return "selected"
	case StateLoaded:
		return "loaded"
	case StateFiltered:
		return "filtered"
	case StateIterating:
		return "iterating"
	case StateCommitted:
		return "committed"
	case StateClosed:
		return "closed"
	case StateLoadFailed:
		return "load-failed"
	case StateNoItemsFound:
		return "no-items-found"
	case StateConnectionLost:
		return "connection-lost"
	}
	return "unknown"
}

// =============================================================================
// ITEM STATUS
// =============================================================================

// ItemStatus selects which line items are loaded.
type ItemStatus string

const (
	StatusOpen    ItemStatus = "open"
	StatusCleared ItemStatus = "cleared"
	StatusAll     ItemStatus = "all"
)

// radio button names for the item status selection.
var statusRadios = map[ItemStatus]string{
	StatusOpen:    "X_OPSEL",
	StatusCleared: "X_CLSEL",
	StatusAll:     "X_AISEL",
}

// =============================================================================
// ACCOUNT SELECTION
// =============================================================================

// AccountSelection is a tagged union: either an explicit list of account
// identifiers or the name of a predefined worklist. Exactly one of the two
// representations is active.
type AccountSelection struct {
	accounts []string
	worklist string
}

// ExplicitAccounts selects items by an explicit list of account numbers.
func ExplicitAccounts(accounts []string) AccountSelection {
	return AccountSelection{accounts: accounts}
}

// WorklistSelection selects items through a named, predefined worklist.
func WorklistSelection(name string) AccountSelection {
	return AccountSelection{worklist: name}
}

// IsWorklist reports whether the selection names a worklist.
func (s AccountSelection) IsWorklist() bool {
	return s.worklist != ""
}

// Accounts returns the explicit account list (empty for a worklist).
func (s AccountSelection) Accounts() []string {
	return s.accounts
}

// Worklist returns the worklist name (empty for an explicit list).
func (s AccountSelection) Worklist() string {
	return s.worklist
}

// =============================================================================
// CHANGE REQUEST / OUTCOME
// =============================================================================

// Field length limits of the editable item fields.
const (
	MaxTextLength       = 50
	MaxAssignmentLength = 18
)

// ChangeRequest holds the desired new values for all items whose current
// text equals the request key. A nil field means "leave unchanged". A
// request may legitimately specify only one of the two fields. Immutable
// once constructed.
type ChangeRequest struct {
	NewText       *string
	NewAssignment *string
}

// ChangeOutcome is the audit trail for one request key. Every key of the
// input mapping appears exactly once in the returned outcome mapping with a
// non-empty message.
type ChangeOutcome struct {
	NewText       *string
	NewAssignment *string
	Message       string
}

// Outcome messages. The wording is part of the user-facing contract.
const (
	MsgNotFound            = "Document not found on the account!"
	MsgTextUpdated         = "Text updated."
	MsgAssignmentUpdated   = "Assignment updated."
	MsgTextUnchanged       = "Text already contains the desired value."
	MsgAssignmentUnchanged = "Assignment already contains the desired value."
)

// =============================================================================
// DRIVER
// =============================================================================

// driver binds a session to a transaction profile and walks the selection
// screens shared by the updater and the exporter.
type driver struct {
	sess    session.Session
	profile profile.Profile
	layout  string
	log     *slog.Logger
	state   State
	bound   bool
}

func newDriver(sess session.Session, p profile.Profile, layout string, log *slog.Logger) driver {
	if log == nil {
		log = slog.Default()
	}
	return driver{sess: sess, profile: p, layout: layout, log: log}
}

// State returns the engine's current position in the screen sequence.
func (d *driver) State() State {
	return d.state
}

// Start binds a transaction context to the session. If a context is already
// bound it is closed first, which makes Start idempotent and safe to call
// repeatedly.
func (d *driver) Start() error {
	if d.sess == nil {
		return ErrUnboundSession
	}

	d.Close()

	if err := d.sess.StartTransaction(d.profile.TransactionCode); err != nil {
		return fmt.Errorf("failed to start transaction %s: %w", d.profile.TransactionCode, err)
	}

	d.bound = true
	d.state = StateBound
	d.log.Info("transaction started", "tcode", d.profile.TransactionCode)
	return nil
}

// Close ends the bound transaction context. A pending modal dialog is
// resolved with confirm semantics before the internal state is cleared.
// Calling Close without a bound context is a no-op; it is always safe to
// call multiple times.
func (d *driver) Close() {
	if !d.bound {
		return
	}

	if err := d.sess.EndTransaction(); err != nil {
		d.log.Error("failed to end transaction", "error", err)
	}

	if d.sess.IsModalOpen() {
		if err := d.sess.ResolveModal(true); err != nil {
			d.log.Error("failed to resolve pending dialog", "error", err)
		}
	}

	d.bound = false
	d.state = StateClosed
}

// SetAccounts enters the company code and the account selection into the
// main selection screen. For an explicit list the identifiers go through
// the multi-value picker; for a worklist, worklist mode is switched on and
// the worklist name entered instead.
func (d *driver) SetAccounts(sel AccountSelection, companyCode string) error {
	if !d.bound {
		return ErrUnboundSession
	}

	if !isNumeric(companyCode) || len(companyCode) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidCompanyCode, companyCode)
	}

	if sel.IsWorklist() {
		if err := d.toggleWorklist(true); err != nil {
			return err
		}
		if err := d.sess.SetField(d.profile.WorklistField, sel.Worklist()); err != nil {
			return fmt.Errorf("failed to set worklist name: %w", err)
		}
	} else {
		accounts := sel.Accounts()
		if len(accounts) == 0 {
			return fmt.Errorf("%w: no accounts supplied", ErrInvalidAccount)
		}
		for _, acc := range accounts {
			if !isNumeric(acc) {
				return fmt.Errorf("%w: %q", ErrInvalidAccount, acc)
			}
		}
		if err := d.toggleWorklist(false); err != nil {
			return err
		}
	}

	if err := d.setCompanyCode(companyCode); err != nil {
		return err
	}

	if err := d.sess.SetField(d.profile.LayoutField, d.layout); err != nil {
		return fmt.Errorf("failed to set layout: %w", err)
	}

	if !sel.IsWorklist() {
		// Open the multi-value picker for the account select-option and
		// insert the identifiers in one bulk operation.
		if err := d.sess.PressButton(d.profile.AccountPickerButton); err != nil {
			return fmt.Errorf("failed to open the account picker: %w", err)
		}
		if err := d.sess.BulkInsertValues(sel.Accounts()); err != nil {
			return fmt.Errorf("failed to insert accounts: %w", err)
		}
	}

	d.state = StateAccountsSet
	return nil
}

// setCompanyCode writes the company code, tolerating either of the two
// possible field locations depending on worklist mode.
func (d *driver) setCompanyCode(companyCode string) error {
	for _, name := range []string{d.profile.CompanyCodeField, d.profile.WorklistCompanyCodeField} {
		if d.sess.FieldExists(name) {
			if err := d.sess.SetField(name, companyCode); err != nil {
				return fmt.Errorf("failed to set company code: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("company code: %w", session.ErrFieldNotPresent)
}

// toggleWorklist switches the "Use worklist" mode on or off. The presence
// of the worklist field indicates the current mode.
func (d *driver) toggleWorklist(activate bool) error {
	active := d.sess.FieldExists(d.profile.WorklistField)
	if activate == active {
		return nil
	}
	if err := d.sess.SendKey(session.KeyCtrlF1); err != nil {
		return fmt.Errorf("failed to toggle worklist mode: %w", err)
	}
	return nil
}

// SetSelectionStatus selects the line item status radio option.
func (d *driver) SetSelectionStatus(status ItemStatus) error {
	if !d.bound {
		return ErrUnboundSession
	}

	radio, ok := statusRadios[status]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := d.sess.SelectRadio(radio); err != nil {
		return fmt.Errorf("failed to select item status: %w", err)
	}

	d.state = StateSelected
	return nil
}

// LoadItems executes the selection and classifies the status line outcome.
//
// RETURNS:
//   - a handle to the loaded item grid on success.
//   - ErrConnectionLost if the status line itself cannot be read; a dead
//     session manifests silently and is only detectable here.
//   - ErrNoItemsFound / LoadFailedError per the status line markers.
func (d *driver) LoadItems() (session.Grid, error) {
	if !d.bound {
		return nil, ErrUnboundSession
	}

	if err := d.sess.SendKey(session.KeyF8); err != nil {
		d.state = StateLoadFailed
		return nil, fmt.Errorf("could not load account data: %w", err)
	}

	status, err := d.sess.ReadStatusLine()
	if err != nil {
		d.state = StateConnectionLost
		return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	if err := classifyLoadStatus(status); err != nil {
		if err == ErrNoItemsFound {
			d.state = StateNoItemsFound
		} else {
			d.state = StateLoadFailed
		}
		return nil, err
	}

	grid, err := d.sess.ItemGrid()
	if err != nil {
		d.state = StateLoadFailed
		return nil, fmt.Errorf("could not access the item grid: %w", err)
	}

	d.state = StateLoaded
	d.log.Info("items loaded", "status", status)
	return grid, nil
}

// isNumeric reports whether s is non-empty and consists of digits only.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// trimJoin concatenates message phrases in field order, trimmed.
func trimJoin(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}
