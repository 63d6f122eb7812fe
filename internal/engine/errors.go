// =============================================================================
// SAP Account Items Updater - Engine Error Taxonomy
// =============================================================================
//
// All engine errors are terminal for the current invocation; nothing is
// retried internally. The caller classifies them into three tiers:
//
//   (a) input validation  : ErrUnboundSession, ErrInvalidCompanyCode,
//                           ErrInvalidAccount, ErrInvalidStatus,
//                           ErrInvalidDateRange, ValueTooLongError
//                           - detected before any external write
//   (b) expected outcomes : ErrNoItemsFound, ErrNoMatchingItems
//                           - informational, not system failures
//   (c) infrastructure    : ErrConnectionLost, LoadFailedError,
//                           ErrDataExport, session.ErrFolderNotFound,
//                           session.ErrFieldNotPresent
//                           - fatal, logged with full detail
//
// =============================================================================

package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrUnboundSession is returned when an operation requires a bound
	// transaction context but none exists.
	ErrUnboundSession = errors.New("no transaction bound; call Start first")

	// ErrInvalidCompanyCode is returned when the company code is not a
	// four-digit numeric string.
	ErrInvalidCompanyCode = errors.New("invalid company code")

	// ErrInvalidAccount is returned for an empty account list or a
	// non-numeric account identifier.
	ErrInvalidAccount = errors.New("invalid account number")

	// ErrInvalidStatus is returned for an unrecognized item status.
	ErrInvalidStatus = errors.New("unrecognized item status")

	// ErrNoItemsFound signals that the selection criteria matched no items
	// on the account(s). Expected condition, not a failure.
	ErrNoItemsFound = errors.New("no items found using the selection criteria")

	// ErrNoMatchingItems signals that items exist on the account(s) but
	// none matched the requested text values after filtering. Distinct
	// from ErrNoItemsFound.
	ErrNoMatchingItems = errors.New("filtering on the searched text values returned no results")

	// ErrConnectionLost signals that the session became unreachable. It can
	// only be detected after a command, when the next read fails.
	ErrConnectionLost = errors.New("connection to SAP lost")

	// ErrInvalidDateRange is returned when the lower posting date exceeds
	// the upper posting date.
	ErrInvalidDateRange = errors.New("lower posting date is greater than upper posting date")

	// ErrDataExport signals that the export command sequence did not
	// produce a readable file.
	ErrDataExport = errors.New("data export failed")
)

// =============================================================================
// DETAIL-CARRYING ERRORS
// =============================================================================

// LoadFailedError is returned when loading items fails for a reason other
// than an empty selection. Status carries the raw status line text, which
// is the only diagnostic the session surfaces.
type LoadFailedError struct {
	Status string
}

func (e *LoadFailedError) Error() string {
	if e.Status == "" {
		return "could not load account data"
	}
	return fmt.Sprintf("could not load account data: %q", e.Status)
}

// ValueTooLongError is returned before any write when a requested value
// exceeds the field's maximum length.
type ValueTooLongError struct {
	Field string
	Max   int
	Value string
}

func (e *ValueTooLongError) Error() string {
	return fmt.Sprintf("the length of the entered value %q exceeds the allowed maximum of %d chars for the %s field",
		e.Value, e.Max, e.Field)
}
