package engine

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/internal/session"
)

// fakeGrid is a scripted Grid backed by a slice of column/value maps.
type fakeGrid struct {
	rows     []map[string]string
	selected []int
	countErr error
	cellErr  error
}

func (g *fakeGrid) RowCount() (int, error) {
	if g.countErr != nil {
		return 0, g.countErr
	}
	return len(g.rows), nil
}

func (g *fakeGrid) CellValue(row int, column string) (string, error) {
	if g.cellErr != nil {
		return "", g.cellErr
	}
	return g.rows[row][column], nil
}

func (g *fakeGrid) SelectRow(row int) error {
	g.selected = append(g.selected, row)
	return nil
}

// fakeSession is a scripted Session recording every interaction. The zero
// value behaves like a healthy session with an empty grid; tests preset the
// fields they care about.
type fakeSession struct {
	present map[string]bool
	writes  []string
	keys    []session.Key
	buttons []string
	radios  []string
	bulk    [][]string
	started []string
	ended   int
	modal   bool

	status    string
	statusErr error
	items     *fakeGrid
	filters   *fakeGrid

	exportFs   afero.Fs
	exportData []byte
	exportErr  error
	exportName string
}

// newFakeSession returns a session scripted for a successful load against
// the given profile: company code and assignment fields present, a filter
// criteria list containing the text column, and a positive status line.
func newFakeSession(p profile.Profile, items *fakeGrid) *fakeSession {
	return &fakeSession{
		present: map[string]bool{
			p.CompanyCodeField: true,
			p.AssignmentField:  true,
		},
		status: "526 items displayed",
		items:  items,
		filters: &fakeGrid{rows: []map[string]string{
			{"FIELDNAME": "BUDAT"},
			{"FIELDNAME": p.TextColumn},
		}},
	}
}

func (s *fakeSession) StartTransaction(code string) error {
	s.started = append(s.started, code)
	return nil
}

func (s *fakeSession) EndTransaction() error {
	s.ended++
	return nil
}

func (s *fakeSession) SetField(name, value string) error {
	s.writes = append(s.writes, name+"="+value)
	return nil
}

func (s *fakeSession) ReadField(name string) (string, error) {
	return "", nil
}

func (s *fakeSession) FieldExists(name string) bool {
	return s.present[name]
}

func (s *fakeSession) SelectRadio(name string) error {
	s.radios = append(s.radios, name)
	return nil
}

func (s *fakeSession) PressButton(name string) error {
	s.buttons = append(s.buttons, name)
	return nil
}

func (s *fakeSession) SendKey(key session.Key) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeSession) IsModalOpen() bool {
	return s.modal
}

func (s *fakeSession) ResolveModal(confirm bool) error {
	s.modal = false
	return nil
}

func (s *fakeSession) BulkInsertValues(values []string) error {
	s.bulk = append(s.bulk, values)
	return nil
}

func (s *fakeSession) ReadStatusLine() (string, error) {
	return s.status, s.statusErr
}

func (s *fakeSession) ItemGrid() (session.Grid, error) {
	return s.items, nil
}

func (s *fakeSession) FilterGrid() (session.Grid, error) {
	return s.filters, nil
}

func (s *fakeSession) ExportGridToFile(dir, filename, encoding string) error {
	s.exportName = filename
	if s.exportErr != nil {
		return s.exportErr
	}
	return afero.WriteFile(s.exportFs, filepath.Join(dir, filename), s.exportData, 0o644)
}

// keyPresses counts how often one virtual key was sent.
func (s *fakeSession) keyPresses(key session.Key) int {
	count := 0
	for _, k := range s.keys {
		if k == key {
			count++
		}
	}
	return count
}

// fieldWrites returns the values written to one named field, in order.
func (s *fakeSession) fieldWrites(name string) []string {
	var values []string
	prefix := name + "="
	for _, w := range s.writes {
		if len(w) >= len(prefix) && w[:len(prefix)] == prefix {
			values = append(values, w[len(prefix):])
		}
	}
	return values
}

func strPtr(s string) *string {
	return &s
}

func glProfile() profile.Profile {
	p, _ := profile.ForKind(profile.GeneralLedger)
	return p
}
