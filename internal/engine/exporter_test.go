package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaskral78/sap-items-updater/internal/session"
)

func exportSession(t *testing.T, data []byte) (*fakeSession, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/temp", 0o755))

	sess := newFakeSession(glProfile(), &fakeGrid{rows: []map[string]string{{"SGTXT": "X"}}})
	sess.exportFs = fs
	sess.exportData = data
	return sess, fs
}

func date(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func TestExportLineItems(t *testing.T) {
	sess, fs := exportSession(t, []byte("BUKRS\tSGTXT\n0075\tOLDA\n"))
	e := NewExporter(sess, glProfile(), "/UPDATER", nil).WithFs(fs)
	defer e.Close()

	from := date(t, "2026-01-02")
	to := date(t, "2026-01-31")

	data, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusOpen, from, to, "/temp")
	require.NoError(t, err)
	assert.Equal(t, "BUKRS\tSGTXT\n0075\tOLDA\n", data)
	assert.Equal(t, StateCommitted, e.State())

	// Dates travel in SAP format.
	assert.Equal(t, []string{"02.01.2026"}, sess.fieldWrites("SO_BUDAT-LOW"))
	assert.Equal(t, []string{"31.01.2026"}, sess.fieldWrites("SO_BUDAT-HIGH"))
	assert.Equal(t, []string{"X_OPSEL"}, sess.radios)

	// Layout switched to technical names before the export.
	assert.Equal(t, 1, sess.keyPresses(session.KeyCtrlF8))
	assert.Equal(t, 1, sess.keyPresses(session.KeyCtrlShiftF6))

	// The export travels through a generated bare temp file name.
	assert.True(t, strings.HasSuffix(sess.exportName, ".txt"), "got %q", sess.exportName)
	assert.NotContains(t, sess.exportName, "/")

	// The exported temp file was removed after the read-back.
	entries, err := afero.ReadDir(fs, "/temp")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportLineItemsOpenDateRange(t *testing.T) {
	sess, fs := exportSession(t, []byte("data\n"))
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs)
	defer e.Close()

	_, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusAll, nil, nil, "/temp")
	require.NoError(t, err)

	// Both boundaries are written empty, leaving the range open.
	assert.Equal(t, []string{""}, sess.fieldWrites("SO_BUDAT-LOW"))
	assert.Equal(t, []string{""}, sess.fieldWrites("SO_BUDAT-HIGH"))
}

func TestExportLineItemsInvalidDateRange(t *testing.T) {
	sess, fs := exportSession(t, nil)
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs)
	defer e.Close()

	_, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusAll, date(t, "2026-02-01"), date(t, "2026-01-01"), "/temp")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestExportLineItemsMissingFolder(t *testing.T) {
	sess, fs := exportSession(t, nil)
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs)
	defer e.Close()

	_, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusAll, nil, nil, "/missing")
	assert.ErrorIs(t, err, session.ErrFolderNotFound)
}

func TestExportLineItemsExportFailure(t *testing.T) {
	sess, fs := exportSession(t, nil)
	sess.exportErr = errors.New("export dialog did not open")
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs)
	defer e.Close()

	_, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusAll, nil, nil, "/temp")
	assert.ErrorIs(t, err, ErrDataExport)
}

func TestExportLineItemsLatin1Decoding(t *testing.T) {
	// 0xE9 is "é" in ISO 8859-1.
	sess, fs := exportSession(t, []byte{'r', 0xE9, 's', 'u', 'm', 0xE9})
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs).WithEncoding(EncodingLatin1)
	defer e.Close()

	data, err := e.ExportLineItems(ExplicitAccounts([]string{"40010000"}),
		"0075", StatusAll, nil, nil, "/temp")
	require.NoError(t, err)
	assert.Equal(t, "résumé", data)
}

func TestSetPostingDatesRequiresStart(t *testing.T) {
	sess, fs := exportSession(t, nil)
	e := NewExporter(sess, glProfile(), "", nil).WithFs(fs)

	err := e.SetPostingDates(nil, nil)
	assert.ErrorIs(t, err, ErrUnboundSession)
}
