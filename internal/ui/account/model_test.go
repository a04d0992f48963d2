package account

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/credential"
	"github.com/nhle/studyhub-notify/internal/keys"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/store"
	"github.com/nhle/studyhub-notify/internal/testutil"
)

type fixture struct {
	store  *store.SQLiteStore
	creds  *credential.Store
	svc    *testutil.FakeService
	tokens []string
	m      Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: testutil.NewTestStore(t),
		creds: credential.NewMemory(),
		svc:   &testutil.FakeService{Counts: model.Counts{Notifications: 2, Messages: 5}},
	}
	connect := func(acct model.Account, token string) api.NotificationService {
		f.tokens = append(f.tokens, token)
		return f.svc
	}
	f.m = New(f.store, f.creds, connect, keys.DefaultKeyMap(), 80, 24)
	return f
}

func (f *fixture) seed(t *testing.T, acct model.Account, token string) model.Account {
	t.Helper()
	saved, err := f.store.UpsertAccount(context.Background(), acct)
	require.NoError(t, err)
	require.NoError(t, f.creds.Set(saved.CredentialKey(), token))
	return saved
}

// drain runs cmd, feeds internal results back into m and returns the
// messages meant for the parent.
func (f *fixture) drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case accountsLoadedMsg, savedInternalMsg, deletedInternalMsg, selectedInternalMsg, ValidateResultMsg:
			var next tea.Cmd
			f.m, next = f.m.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) press(t *testing.T, s string) []tea.Msg {
	t.Helper()
	var cmd tea.Cmd
	f.m, cmd = f.m.Update(keyMsg(s))
	return f.drain(t, cmd)
}

func TestInitLoadsAccounts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Account{Name: "b", BaseURL: "http://b", Enabled: true}, "tb")
	f.seed(t, model.Account{Name: "a", BaseURL: "http://a", Enabled: true}, "ta")

	f.drain(t, f.m.Init())
	require.Len(t, f.m.Accounts(), 2)
	assert.Equal(t, "a", f.m.Accounts()[0].Name)
	assert.Contains(t, f.m.View(), "http://b")
}

func TestEmptyListHint(t *testing.T) {
	f := newFixture(t)
	f.drain(t, f.m.Init())
	assert.Contains(t, f.m.View(), "No accounts configured.")
}

func TestEnterSelectsAccount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Account{Name: "a", BaseURL: "http://a", Enabled: true}, "ta")
	b := f.seed(t, model.Account{Name: "b", BaseURL: "http://b", Enabled: true}, "tb")
	f.drain(t, f.m.Init())

	f.press(t, "j")
	out := f.press(t, "enter")
	require.Len(t, out, 1)
	sel, ok := out[0].(SelectedMsg)
	require.True(t, ok)
	assert.Equal(t, b.ID, sel.Account.ID)
	assert.Equal(t, "tb", sel.Token)

	last, err := f.store.LastUsedAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b.ID, last.ID)
}

func TestSelectDisabledAccountFails(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Account{Name: "off", BaseURL: "http://off"}, "t")
	f.drain(t, f.m.Init())

	out := f.press(t, "enter")
	assert.Empty(t, out)
	assert.Contains(t, f.m.Status(), "disabled")
}

func TestSelectWithoutTokenFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.UpsertAccount(context.Background(), model.Account{Name: "a", BaseURL: "http://a", Enabled: true})
	require.NoError(t, err)
	f.drain(t, f.m.Init())

	assert.Empty(t, f.press(t, "enter"))
	assert.Contains(t, f.m.Status(), "no token stored")
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Account{Name: "a", BaseURL: "http://a", Enabled: true}, "ta")
	f.drain(t, f.m.Init())

	f.press(t, "t")
	assert.Equal(t, ModeValidateResult, f.m.Mode())
	assert.Contains(t, f.m.View(), "Connection successful")
	assert.Contains(t, f.m.View(), "2 unread notifications, 5 unread messages")
	assert.Equal(t, []string{"ta"}, f.tokens)

	f.press(t, "esc")
	assert.Equal(t, ModeList, f.m.Mode())

	f.svc.FailCounts(&api.AuthError{BaseURL: "http://a", Message: "Please login."})
	f.press(t, "t")
	assert.Contains(t, f.m.View(), "Connection failed")
}

func TestValidateAndSaveNewAccount(t *testing.T) {
	f := newFixture(t)
	f.m.mode = ModeValidating

	out := f.drain(t, f.m.validateAndSave(model.Account{
		Name: "campus", BaseURL: "https://hub.example.edu", Enabled: true,
	}, "secret"))

	require.Len(t, out, 1)
	saved := out[0].(SavedMsg).Account
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, ModeList, f.m.Mode())
	require.Len(t, f.m.Accounts(), 1)

	tok, err := f.creds.Get(saved.CredentialKey())
	require.NoError(t, err)
	assert.Equal(t, "secret", tok)
}

func TestValidateAndSaveRejectsBadConnection(t *testing.T) {
	f := newFixture(t)
	f.svc.FailCounts(errors.New("connection refused"))
	f.m.mode = ModeValidating

	out := f.drain(t, f.m.validateAndSave(model.Account{Name: "x", BaseURL: "http://x"}, "t"))
	assert.Empty(t, out)
	assert.Equal(t, ModeValidateResult, f.m.Mode())

	all, err := f.store.GetAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEditKeepsStoredToken(t *testing.T) {
	f := newFixture(t)
	acct := f.seed(t, model.Account{Name: "a", BaseURL: "http://a", Enabled: true}, "kept")
	f.m.mode = ModeValidating

	acct.Name = "renamed"
	out := f.drain(t, f.m.validateAndSave(acct, ""))
	require.Len(t, out, 1)

	assert.Equal(t, []string{"kept"}, f.tokens)
	got, err := f.store.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
}

func TestDeleteAccountRemovesToken(t *testing.T) {
	f := newFixture(t)
	acct := f.seed(t, model.Account{Name: "a", BaseURL: "http://a", Enabled: true}, "t")
	f.drain(t, f.m.Init())

	out := f.drain(t, f.m.deleteAccount(acct))
	assert.Equal(t, []tea.Msg{DeletedMsg{ID: acct.ID}}, out)
	assert.Empty(t, f.m.Accounts())

	_, err := f.creds.Get(acct.CredentialKey())
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestEscClosesList(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []tea.Msg{DoneMsg{}}, f.press(t, "esc"))
}

func TestAddOpensForm(t *testing.T) {
	f := newFixture(t)
	f.m, _ = f.m.Update(keyMsg("a"))
	assert.Equal(t, ModeForm, f.m.Mode())
	assert.True(t, f.m.values.enabled)
	assert.NotEmpty(t, f.m.View())
}

func TestValidators(t *testing.T) {
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("hub.example.edu"))
	assert.NoError(t, validateURL("https://hub.example.edu"))

	assert.NoError(t, validateInterval(""))
	assert.NoError(t, validateInterval("60"))
	assert.Error(t, validateInterval("-1"))
	assert.Error(t, validateInterval("soon"))

	assert.Error(t, validateRequired("Name")("  "))
}
