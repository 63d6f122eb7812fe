// =============================================================================
// SAP Account Items Updater - Line Item Exporter
// =============================================================================
//
// The Exporter is the updater's sibling state machine for bulk read-out of
// line item data. It shares the navigation steps (bind, accounts/worklist,
// status, load) through the common driver and adds:
//
//   - an optional posting date range
//   - a layout/technical-name toggle sequence
//   - export of the loaded grid to a local flat file, which is read back
//     as text and deleted afterwards
//
// The exported file travels through a temp directory; file access goes
// through an injected afero filesystem so the read-back path is testable
// without a real disk.
//
// =============================================================================

package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/internal/session"
	"github.com/tomaskral78/sap-items-updater/pkg/utils"
)

// Posting date fields on the selection screen and the SAP date format.
const (
	fieldPostingDateFrom = "SO_BUDAT-LOW"
	fieldPostingDateTo   = "SO_BUDAT-HIGH"
	sapDateFormat        = "02.01.2006"
)

// SAP file encoding codes accepted by the local file export dialog.
const (
	EncodingUTF8   = "4120"
	EncodingLatin1 = "1100"
)

// decoders maps SAP encoding codes to text decoders for the read-back.
var decoders = map[string]*encoding.Decoder{
	EncodingUTF8:   unicode.UTF8.NewDecoder(),
	EncodingLatin1: charmap.ISO8859_1.NewDecoder(),
}

// =============================================================================
// EXPORTER STRUCTURE
// =============================================================================

// Exporter reads line item data out of an account selection into plain
// text. One instance per invocation, session injected, never shared.
type Exporter struct {
	driver

	fs       afero.Fs
	encoding string
}

// NewExporter creates a line item exporter bound to a session and profile.
// The layout names the grid column arrangement; "" uses the transaction
// default.
func NewExporter(sess session.Session, p profile.Profile, layout string, log *slog.Logger) *Exporter {
	return &Exporter{
		driver:   newDriver(sess, p, layout, log),
		fs:       afero.NewOsFs(),
		encoding: EncodingUTF8,
	}
}

// WithFs replaces the filesystem used for the exported file read-back.
func (e *Exporter) WithFs(fs afero.Fs) *Exporter {
	e.fs = fs
	return e
}

// WithEncoding selects the SAP encoding code for the exported file.
func (e *Exporter) WithEncoding(code string) *Exporter {
	e.encoding = code
	return e
}

// =============================================================================
// DATE RANGE
// =============================================================================

// SetPostingDates enters the posting date range restricting which items are
// loaded. A nil boundary leaves that side open. When both are supplied,
// from must not exceed to.
func (e *Exporter) SetPostingDates(from, to *time.Time) error {
	if !e.bound {
		return ErrUnboundSession
	}

	if from != nil && to != nil && from.After(*to) {
		return ErrInvalidDateRange
	}

	var lower, upper string
	if from != nil {
		lower = from.Format(sapDateFormat)
	}
	if to != nil {
		upper = to.Format(sapDateFormat)
	}

	if err := e.sess.SetField(fieldPostingDateFrom, lower); err != nil {
		return fmt.Errorf("failed to set lower posting date: %w", err)
	}
	if err := e.sess.SetField(fieldPostingDateTo, upper); err != nil {
		return fmt.Errorf("failed to set upper posting date: %w", err)
	}
	return nil
}

// =============================================================================
// EXPORT SEQUENCE
// =============================================================================

// ExportLineItems runs the complete export sequence and returns the
// exported data as text. tempDir is the local directory the session writes
// the flat file into; the file is deleted after reading.
func (e *Exporter) ExportLineItems(sel AccountSelection, companyCode string, status ItemStatus, from, to *time.Time, tempDir string) (string, error) {
	if err := e.Start(); err != nil {
		return "", err
	}
	if err := e.SetAccounts(sel, companyCode); err != nil {
		return "", err
	}
	if err := e.SetSelectionStatus(status); err != nil {
		return "", err
	}
	if err := e.SetPostingDates(from, to); err != nil {
		return "", err
	}

	if _, err := e.LoadItems(); err != nil {
		return "", err
	}

	// Switch the loaded layout to technical column names so the export is
	// stable across display variants.
	if err := e.sess.SendKey(session.KeyCtrlF8); err != nil {
		return "", fmt.Errorf("failed to open layout management: %w", err)
	}
	if err := e.sess.SendKey(session.KeyCtrlShiftF6); err != nil {
		return "", fmt.Errorf("failed to toggle technical names: %w", err)
	}
	if err := e.sess.SendKey(session.KeyEnter); err != nil {
		return "", fmt.Errorf("failed to confirm layout changes: %w", err)
	}

	data, err := e.exportToFile(tempDir)
	if err != nil {
		return "", err
	}

	if err := e.sess.SendKey(session.KeyF3); err != nil {
		e.log.Error("failed to return to the main screen", "error", err)
	}

	e.state = StateCommitted
	return data, nil
}

// exportToFile drives the local file export, reads the produced file back
// and removes it.
func (e *Exporter) exportToFile(tempDir string) (string, error) {
	exists, err := afero.DirExists(e.fs, tempDir)
	if err != nil {
		return "", fmt.Errorf("could not check the export folder: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %q", session.ErrFolderNotFound, tempDir)
	}

	path := utils.NewTempManager(tempDir).UniquePath(".txt")
	if err := e.sess.ExportGridToFile(tempDir, filepath.Base(path), e.encoding); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataExport, err)
	}
	raw, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: exported file is not readable: %v", ErrDataExport, err)
	}

	if err := e.fs.Remove(path); err != nil {
		e.log.Error("failed to remove the exported temp file", "path", path, "error", err)
	}

	decoder, ok := decoders[e.encoding]
	if !ok {
		return "", fmt.Errorf("%w: unsupported encoding code %q", ErrDataExport, e.encoding)
	}
	decoded, err := decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: could not decode exported data: %v", ErrDataExport, err)
	}

	return string(decoded), nil
}
