// =============================================================================
// SAP Account Items Updater - Status Line Classification
// =============================================================================
//
// The free-text status line is the only feedback channel for the outcome of
// a bulk load. Its text is matched on fixed substrings; everything else in
// the engine operates on the typed outcome produced here.
//
// The marker strings are part of the external contract and must not be
// altered.
//
// =============================================================================

package engine

import "strings"

// Fixed status line markers.
const (
	statusNoItemsSelected = "No items selected"
	statusItemsDisplayed  = "items displayed"
)

// classifyLoadStatus translates the raw status line text read after a load
// command into a typed outcome.
//
// RETURNS:
//   - nil if the text contains the "items displayed" marker.
//   - ErrNoItemsFound if the text contains the "No items selected" marker.
//   - a LoadFailedError carrying the raw text otherwise.
func classifyLoadStatus(status string) error {
	if strings.Contains(status, statusNoItemsSelected) {
		return ErrNoItemsFound
	}
	if !strings.Contains(status, statusItemsDisplayed) {
		return &LoadFailedError{Status: status}
	}
	return nil
}
