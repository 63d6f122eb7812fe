package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaskral78/sap-items-updater/internal/session"
)

func TestSetAccountsRequiresStart(t *testing.T) {
	sess := newFakeSession(glProfile(), &fakeGrid{})
	u := NewUpdater(sess, glProfile(), "", nil)

	err := u.SetAccounts(ExplicitAccounts([]string{"40010000"}), "0075")
	assert.ErrorIs(t, err, ErrUnboundSession)
}

func TestSetAccountsCompanyCodeValidation(t *testing.T) {
	tests := []struct {
		name        string
		companyCode string
		wantErr     error
	}{
		{name: "valid", companyCode: "0075", wantErr: nil},
		{name: "empty", companyCode: "", wantErr: ErrInvalidCompanyCode},
		{name: "too short", companyCode: "075", wantErr: ErrInvalidCompanyCode},
		{name: "too long", companyCode: "00750", wantErr: ErrInvalidCompanyCode},
		{name: "non numeric", companyCode: "07A5", wantErr: ErrInvalidCompanyCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession(glProfile(), &fakeGrid{})
			u := NewUpdater(sess, glProfile(), "", nil)
			require.NoError(t, u.Start())

			err := u.SetAccounts(ExplicitAccounts([]string{"40010000"}), tt.companyCode)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Equal(t, StateAccountsSet, u.State())
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSetAccountsRejectsBadAccountLists(t *testing.T) {
	tests := []struct {
		name     string
		accounts []string
	}{
		{name: "empty list", accounts: nil},
		{name: "non numeric identifier", accounts: []string{"40010000", "4001000X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession(glProfile(), &fakeGrid{})
			u := NewUpdater(sess, glProfile(), "", nil)
			require.NoError(t, u.Start())

			err := u.SetAccounts(ExplicitAccounts(tt.accounts), "0075")
			assert.ErrorIs(t, err, ErrInvalidAccount)
		})
	}
}

func TestSetAccountsExplicitGoesThroughPicker(t *testing.T) {
	prof := glProfile()
	sess := newFakeSession(prof, &fakeGrid{})
	u := NewUpdater(sess, prof, "/UPDATER", nil)
	require.NoError(t, u.Start())

	accounts := []string{"40010000", "40020000"}
	require.NoError(t, u.SetAccounts(ExplicitAccounts(accounts), "0075"))

	assert.Equal(t, []string{"0075"}, sess.fieldWrites(prof.CompanyCodeField))
	assert.Equal(t, []string{"/UPDATER"}, sess.fieldWrites(prof.LayoutField))
	assert.Contains(t, sess.buttons, prof.AccountPickerButton)
	require.Len(t, sess.bulk, 1)
	assert.Equal(t, accounts, sess.bulk[0])
	// Worklist mode stays off when the worklist field is absent.
	assert.Zero(t, sess.keyPresses(session.KeyCtrlF1))
}

func TestSetAccountsWorklistTogglesMode(t *testing.T) {
	prof := glProfile()
	sess := newFakeSession(prof, &fakeGrid{})
	u := NewUpdater(sess, prof, "", nil)
	require.NoError(t, u.Start())

	require.NoError(t, u.SetAccounts(WorklistSelection("MONTH_END"), "0075"))

	assert.Equal(t, 1, sess.keyPresses(session.KeyCtrlF1))
	assert.Equal(t, []string{"MONTH_END"}, sess.fieldWrites(prof.WorklistField))
	assert.NotContains(t, sess.buttons, prof.AccountPickerButton)
	assert.Empty(t, sess.bulk)
}

func TestSetSelectionStatus(t *testing.T) {
	tests := []struct {
		status    ItemStatus
		wantRadio string
	}{
		{status: StatusOpen, wantRadio: "X_OPSEL"},
		{status: StatusCleared, wantRadio: "X_CLSEL"},
		{status: StatusAll, wantRadio: "X_AISEL"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			sess := newFakeSession(glProfile(), &fakeGrid{})
			u := NewUpdater(sess, glProfile(), "", nil)
			require.NoError(t, u.Start())

			require.NoError(t, u.SetSelectionStatus(tt.status))
			assert.Equal(t, []string{tt.wantRadio}, sess.radios)
			assert.Equal(t, StateSelected, u.State())
		})
	}
}

func TestSetSelectionStatusRejectsUnknown(t *testing.T) {
	sess := newFakeSession(glProfile(), &fakeGrid{})
	u := NewUpdater(sess, glProfile(), "", nil)
	require.NoError(t, u.Start())

	err := u.SetSelectionStatus(ItemStatus("parked"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLoadItemsOutcomes(t *testing.T) {
	t.Run("items displayed", func(t *testing.T) {
		sess := newFakeSession(glProfile(), &fakeGrid{rows: []map[string]string{{"SGTXT": "X"}}})
		u := NewUpdater(sess, glProfile(), "", nil)
		require.NoError(t, u.Start())

		grid, err := u.LoadItems()
		require.NoError(t, err)
		assert.NotNil(t, grid)
		assert.Equal(t, StateLoaded, u.State())
		assert.Equal(t, 1, sess.keyPresses(session.KeyF8))
	})

	t.Run("no items selected", func(t *testing.T) {
		sess := newFakeSession(glProfile(), &fakeGrid{})
		sess.status = "No items selected (see long text)"
		u := NewUpdater(sess, glProfile(), "", nil)
		require.NoError(t, u.Start())

		_, err := u.LoadItems()
		assert.ErrorIs(t, err, ErrNoItemsFound)
		assert.Equal(t, StateNoItemsFound, u.State())
	})

	t.Run("load failure carries status text", func(t *testing.T) {
		sess := newFakeSession(glProfile(), &fakeGrid{})
		sess.status = "E: Account 40010000 does not exist"
		u := NewUpdater(sess, glProfile(), "", nil)
		require.NoError(t, u.Start())

		_, err := u.LoadItems()
		var loadErr *LoadFailedError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "E: Account 40010000 does not exist", loadErr.Status)
		assert.Equal(t, StateLoadFailed, u.State())
	})

	t.Run("dead session surfaces as connection lost", func(t *testing.T) {
		sess := newFakeSession(glProfile(), &fakeGrid{})
		sess.statusErr = errors.New("read tcp: connection reset")
		u := NewUpdater(sess, glProfile(), "", nil)
		require.NoError(t, u.Start())

		_, err := u.LoadItems()
		assert.ErrorIs(t, err, ErrConnectionLost)
		assert.Equal(t, StateConnectionLost, u.State())
	})
}

func TestCloseIsIdempotentAndResolvesModals(t *testing.T) {
	sess := newFakeSession(glProfile(), &fakeGrid{})
	u := NewUpdater(sess, glProfile(), "", nil)

	// Close without a bound context is a no-op.
	u.Close()
	assert.Zero(t, sess.ended)

	require.NoError(t, u.Start())
	sess.modal = true

	u.Close()
	u.Close()

	assert.Equal(t, 1, sess.ended)
	assert.False(t, sess.modal, "pending dialog must be resolved on close")
	assert.Equal(t, StateClosed, u.State())
}

func TestStartReentersByClosingFirst(t *testing.T) {
	sess := newFakeSession(glProfile(), &fakeGrid{})
	u := NewUpdater(sess, glProfile(), "", nil)

	require.NoError(t, u.Start())
	require.NoError(t, u.Start())

	assert.Equal(t, []string{"FBL3N", "FBL3N"}, sess.started)
	assert.Equal(t, 1, sess.ended)
}
