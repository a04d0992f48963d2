// Package account is the screen for managing StudyHub accounts: listing,
// adding, editing, deleting, testing the connection, and choosing which
// account the feed shows.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/credential"
	"github.com/nhle/studyhub-notify/internal/keys"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/store"
	"github.com/nhle/studyhub-notify/internal/theme"
)

// Mode represents the current state of the account view.
type Mode int

const (
	ModeList           Mode = iota // List configured accounts
	ModeForm                       // Add or edit form
	ModeValidating                 // Testing connection
	ModeValidateResult             // Show validation result
	ModeConfirmDelete              // Confirm account deletion
)

// DoneMsg signals the account view should close.
type DoneMsg struct{}

// SelectedMsg asks the parent to switch the feed to an account.
type SelectedMsg struct {
	Account model.Account
	Token   string
}

// SavedMsg signals an account was saved.
type SavedMsg struct {
	Account model.Account
}

// DeletedMsg signals an account was deleted.
type DeletedMsg struct {
	ID string
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Counts model.Counts
	Err    error
}

type accountsLoadedMsg struct {
	accounts []model.Account
	err      error
}

type savedInternalMsg struct {
	account model.Account
	err     error
}

type deletedInternalMsg struct {
	id  string
	err error
}

type selectedInternalMsg struct {
	account model.Account
	token   string
	err     error
}

// Connector builds the service used to test an account.
type Connector func(acct model.Account, token string) api.NotificationService

// NewConnector returns a Connector that talks to the real API with opts.
func NewConnector(opts api.Options) Connector {
	return func(acct model.Account, token string) api.NotificationService {
		return api.NewService(api.NewClient(acct.BaseURL, token, opts))
	}
}

// formValues holds what the huh fields bind to. It lives behind a pointer
// so the bindings survive copies of Model.
type formValues struct {
	name     string
	baseURL  string
	token    string
	interval string
	enabled  bool
	confirm  bool
}

// Model is the Bubble Tea model for the account management UI.
type Model struct {
	mode        Mode
	store       store.Store
	creds       *credential.Store
	connect     Connector
	accounts    []model.Account
	selectedIdx int
	editing     *model.Account

	form       *huh.Form
	confirmDel *huh.Form
	values     *formValues

	validError  error
	validCounts model.Counts
	spinner     spinner.Model

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new account view model.
func New(
	s store.Store,
	creds *credential.Store,
	connect Connector,
	k *keys.KeyMap,
	width, height int,
) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		store:   s,
		creds:   creds,
		connect: connect,
		values:  &formValues{},
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads accounts from the store.
func (m Model) Init() tea.Cmd {
	return m.loadAccounts()
}

// StartAdd opens the add form directly; used for first-run setup.
func (m *Model) StartAdd() tea.Cmd {
	m.editing = nil
	*m.values = formValues{enabled: true}
	m.form = m.buildForm(true)
	m.mode = ModeForm
	return tea.Batch(m.loadAccounts(), m.form.Init())
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading accounts: %v", msg.err)
			return m, nil
		}
		m.accounts = msg.accounts
		if m.selectedIdx >= len(m.accounts) {
			m.selectedIdx = max(len(m.accounts)-1, 0)
		}
		return m, nil

	case savedInternalMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving account: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Account %q saved", msg.account.Name)
		saved := msg.account
		return m, tea.Batch(
			m.loadAccounts(),
			func() tea.Msg { return SavedMsg{Account: saved} },
		)

	case deletedInternalMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error deleting account: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Account deleted"
		id := msg.id
		return m, tea.Batch(
			m.loadAccounts(),
			func() tea.Msg { return DeletedMsg{ID: id} },
		)

	case selectedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Cannot open account: %v", msg.err)
			return m, nil
		}
		sel := SelectedMsg{Account: msg.account, Token: msg.token}
		return m, func() tea.Msg { return sel }

	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.validError = msg.Err
		m.validCounts = msg.Counts
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeValidateResult:
		if msg.String() == "enter" || key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
			m.validError = nil
		}
		return m, nil
	case ModeValidating:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}
	return m.updateActiveForm(msg)
}

// handleListKeys processes key events in the account list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case msg.String() == "a":
		cmd := m.StartAdd()
		return m, cmd

	case msg.String() == "e":
		acct, ok := m.current()
		if !ok {
			return m, nil
		}
		m.editing = &acct
		*m.values = formValues{
			name:     acct.Name,
			baseURL:  acct.BaseURL,
			interval: strconv.Itoa(acct.PollIntervalSec),
			enabled:  acct.Enabled,
		}
		m.form = m.buildForm(false)
		m.mode = ModeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Dismiss):
		acct, ok := m.current()
		if !ok {
			return m, nil
		}
		m.values.confirm = false
		m.confirmDel = m.buildDeleteConfirmForm(acct.Name)
		m.mode = ModeConfirmDelete
		return m, m.confirmDel.Init()

	case msg.String() == "t":
		acct, ok := m.current()
		if !ok {
			return m, nil
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.testAccount(acct))

	case msg.String() == "enter":
		acct, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, m.selectAccount(acct)

	case key.Matches(msg, m.keys.Down):
		if len(m.accounts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.accounts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.accounts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.accounts) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) current() (model.Account, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.accounts) {
		return model.Account{}, false
	}
	return m.accounts[m.selectedIdx], true
}

// updateActiveForm dispatches messages to the currently active form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// --- Add / Edit Form ---

func (m Model) buildForm(isNew bool) *huh.Form {
	tokenDesc := "Bearer token issued by the StudyHub login endpoint"
	tokenValidate := validateRequired("Token")
	if !isNew {
		tokenDesc = "Leave empty to keep the stored token"
		tokenValidate = func(string) error { return nil }
	}

	v := m.values
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this account").
				Placeholder("Campus").
				Value(&v.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Base URL").
				Description("StudyHub server URL").
				Placeholder("https://studyhub.example.edu").
				Value(&v.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Access Token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Value(&v.token).
				Validate(tokenValidate),
			huh.NewInput().
				Title("Poll Interval (seconds)").
				Description("0 uses the global setting").
				Placeholder("0").
				Value(&v.interval).
				Validate(validateInterval),
			huh.NewConfirm().
				Title("Enabled").
				Value(&v.enabled),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		acct := m.accountFromForm()
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateAndSave(acct, strings.TrimSpace(m.values.token)))
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) accountFromForm() model.Account {
	interval, _ := strconv.Atoi(strings.TrimSpace(m.values.interval))
	acct := model.Account{
		Name:            strings.TrimSpace(m.values.name),
		BaseURL:         strings.TrimSpace(m.values.baseURL),
		Enabled:         m.values.enabled,
		PollIntervalSec: interval,
	}
	if m.editing != nil {
		acct.ID = m.editing.ID
		acct.Config = m.editing.Config
	}
	return acct
}

// --- Delete Confirmation ---

func (m Model) buildDeleteConfirmForm(name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account %q?", name)).
				Description("This removes the account and its stored token.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.values.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDel == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDel.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDel = f
	}

	switch m.confirmDel.State {
	case huh.StateCompleted:
		acct, ok := m.current()
		if m.values.confirm && ok {
			return m, m.deleteAccount(acct)
		}
		m.mode = ModeList
		return m, nil
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the account UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeForm:
		return m.viewForm(m.form)
	case ModeValidating:
		return m.frame(fmt.Sprintf(
			"%s Testing connection...\n\nPress esc to cancel.",
			m.spinner.View(),
		))
	case ModeValidateResult:
		return m.viewValidateResult()
	case ModeConfirmDelete:
		return m.viewForm(m.confirmDel)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("StudyHub Accounts"))
	b.WriteString("\n\n")

	if len(m.accounts) == 0 {
		b.WriteString(theme.HelpStyle.Render(
			"No accounts configured.\nPress 'a' to add one.",
		))
	} else {
		for i, acct := range m.accounts {
			b.WriteString(m.renderAccountItem(i, acct))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter use | a add | e edit | d delete | t test | esc back",
	))

	return m.frame(b.String())
}

func (m Model) renderAccountItem(idx int, acct model.Account) string {
	enabledLabel, enabledColor := "enabled", theme.ColorGreen
	if !acct.Enabled {
		enabledLabel, enabledColor = "disabled", theme.ColorGray
	}

	line := fmt.Sprintf("%s  %s  %s",
		acct.Name,
		theme.HelpStyle.Render(acct.BaseURL),
		lipgloss.NewStyle().Foreground(enabledColor).Render(enabledLabel),
	)

	if idx == m.selectedIdx {
		return theme.SelectedCardStyle.Render(line)
	}
	return theme.CardStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return m.frame(f.View())
}

func (m Model) viewValidateResult() string {
	if m.validError != nil {
		return m.frame(
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render("Connection failed") +
				"\n\n" + m.validError.Error() + "\n\n" +
				theme.HelpStyle.Render("enter/esc back"),
		)
	}
	return m.frame(
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("Connection successful") +
			"\n\n" + fmt.Sprintf(
			"%d unread notifications, %d unread messages",
			m.validCounts.Notifications, m.validCounts.Messages,
		) + "\n\n" +
			theme.HelpStyle.Render("enter/esc back"),
	)
}

func (m Model) frame(content string) string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Mode returns the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Accounts returns the loaded accounts.
func (m Model) Accounts() []model.Account {
	return m.accounts
}

// Status returns the last status line.
func (m Model) Status() string {
	return m.statusMsg
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

// loadAccounts returns a command that loads all accounts from the store.
func (m Model) loadAccounts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		accounts, err := s.GetAccounts(context.Background())
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

// token returns the stored token for acct.
func (m Model) token(acct model.Account) (string, error) {
	tok, err := m.creds.Get(acct.CredentialKey())
	if errors.Is(err, credential.ErrNotFound) {
		return "", fmt.Errorf("no token stored for %q", acct.Name)
	}
	return tok, err
}

// selectAccount loads the account's token and reports the choice.
func (m Model) selectAccount(acct model.Account) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if !acct.Enabled {
			return selectedInternalMsg{err: fmt.Errorf("account %q is disabled", acct.Name)}
		}
		tok, err := m.token(acct)
		if err != nil {
			return selectedInternalMsg{err: err}
		}
		if err := s.TouchAccount(context.Background(), acct.ID); err != nil {
			logging.For("account").WithError(err).Warn("recording account use failed")
		}
		return selectedInternalMsg{account: acct, token: tok}
	}
}

// deleteAccount removes an account and its credential.
func (m Model) deleteAccount(acct model.Account) tea.Cmd {
	s, creds := m.store, m.creds
	return func() tea.Msg {
		if err := creds.Delete(acct.CredentialKey()); err != nil {
			logging.For("account").WithError(err).Warn("removing credential failed")
		}
		err := s.DeleteAccount(context.Background(), acct.ID)
		return deletedInternalMsg{id: acct.ID, err: err}
	}
}

// testAccount checks that an existing account can reach its server.
func (m Model) testAccount(acct model.Account) tea.Cmd {
	connect := m.connect
	return func() tea.Msg {
		tok, err := m.token(acct)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}
		counts, err := connect(acct, tok).FetchCounts(context.Background())
		return ValidateResultMsg{Counts: counts, Err: err}
	}
}

// validateAndSave checks the connection, then persists the account and
// its token. An empty token on edit reuses the stored one.
func (m Model) validateAndSave(acct model.Account, token string) tea.Cmd {
	s, creds, connect := m.store, m.creds, m.connect
	return func() tea.Msg {
		ctx := context.Background()

		if token == "" && acct.ID != "" {
			stored, err := m.token(acct)
			if err != nil {
				return ValidateResultMsg{Err: err}
			}
			token = stored
		}

		counts, err := connect(acct, token).FetchCounts(ctx)
		if err != nil {
			return ValidateResultMsg{Counts: counts, Err: err}
		}

		saved, err := s.UpsertAccount(ctx, acct)
		if err != nil {
			return savedInternalMsg{err: err}
		}
		if err := creds.Set(saved.CredentialKey(), token); err != nil {
			return savedInternalMsg{err: fmt.Errorf("account saved but token was not: %w", err)}
		}
		return savedInternalMsg{account: saved}
	}
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateInterval(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("interval must be a whole number of seconds")
	}
	return nil
}
