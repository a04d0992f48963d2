package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/credential"
	"github.com/nhle/studyhub-notify/internal/keys"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/store"
	appsync "github.com/nhle/studyhub-notify/internal/sync"
	"github.com/nhle/studyhub-notify/internal/ui"
	"github.com/nhle/studyhub-notify/internal/ui/account"
	"github.com/nhle/studyhub-notify/internal/ui/command"
	"github.com/nhle/studyhub-notify/internal/ui/counter"
	"github.com/nhle/studyhub-notify/internal/ui/feed"
	helpview "github.com/nhle/studyhub-notify/internal/ui/help"
	"github.com/nhle/studyhub-notify/internal/ui/post"
)

const (
	title     = "StudyHub"
	noticeTTL = 4 * time.Second
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewPost
	ViewHelp
	ViewCommand
	ViewAccounts
)

// Options wires the root model to its collaborators.
type Options struct {
	Store  store.Store
	Creds  *credential.Store
	Config model.AppConfig

	// AccountID selects the startup account by ID or name, overriding
	// Config.DefaultAccount.
	AccountID string

	// EnvBaseURL and EnvToken, when both set, bypass the stored accounts.
	EnvBaseURL string
	EnvToken   string

	// Connector builds the API service for an account. Defaults to the
	// HTTP client configured from Config.API.
	Connector account.Connector
}

type clearNoticeMsg struct {
	seq int
}

// Model is the root Bubble Tea model. It routes messages between the
// feed, the header counters and the secondary views, and owns the session
// of the signed-in account.
type Model struct {
	opts         Options
	connect      account.Connector
	keys         *keys.KeyMap
	layout       ui.Layout
	currentView  ViewState
	previousView ViewState

	session     *session
	nextSession int
	feed        feed.Model
	counter     counter.Model

	postView    post.Model
	helpView    helpview.Model
	commandView command.Model
	accountView account.Model

	authHint  string
	notice    string
	noticeSeq int
	ready     bool
}

// New creates the root model. No request is made until Init.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	connect := opts.Connector
	if connect == nil {
		connect = account.NewConnector(APIOptions(opts.Config.API))
	}

	return Model{
		opts:        opts,
		connect:     connect,
		keys:        k,
		layout:      ui.NewLayout(80, 24),
		currentView: ViewFeed,
		postView:    post.New("", k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		accountView: account.New(opts.Store, opts.Creds, connect, k, 80, 22),
	}
}

// APIOptions converts the api config section into client options.
func APIOptions(c model.APIConfig) api.Options {
	return api.Options{
		Timeout:         time.Duration(c.TimeoutSec) * time.Second,
		BreakerFailures: c.BreakerFailures,
		BreakerCooldown: time.Duration(c.BreakerCooldownSec) * time.Second,
	}
}

// Init resolves the startup account.
func (m Model) Init() tea.Cmd {
	return resolveAccount(m.opts)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		if m.currentView == ViewAccounts {
			// huh forms lay themselves out from the size message.
			var cmd tea.Cmd
			m.accountView, cmd = m.accountView.Update(msg)
			return m, cmd
		}
		return m, nil

	case sessionMsg:
		if m.session == nil || msg.id != m.session.id || msg.msg == nil {
			return m, nil
		}
		return m.handleSessionMsg(msg.msg)

	case accountResolvedMsg:
		return m, m.startSession(msg.account, msg.token)

	case noAccountMsg:
		m.previousView = ViewFeed
		m.currentView = ViewAccounts
		if msg.err == nil {
			return m, m.accountView.StartAdd()
		}
		logging.For("app").WithError(msg.err).Warn("no usable account")
		return m, tea.Batch(m.setNotice(fmt.Sprintf("Cannot open account: %v", msg.err)), m.accountView.Init())

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case account.SelectedMsg:
		return m, m.startSession(msg.Account, msg.Token)

	case account.SavedMsg:
		if m.session == nil || m.session.account.ID == msg.Account.ID {
			return m, openAccount(m.opts.Creds, msg.Account)
		}
		return m, nil

	case account.DeletedMsg:
		if m.session != nil && m.session.account.ID == msg.ID {
			m.endSession()
		}
		return m, nil

	case account.DoneMsg:
		if m.session == nil {
			return m, m.setNotice("Add or select an account to continue")
		}
		m.currentView = ViewFeed
		return m, nil

	case post.BackMsg:
		m.currentView = ViewFeed
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(command.Name(msg))

	case command.UnknownMsg:
		m.currentView = m.previousView
		return m, m.setNotice(fmt.Sprintf("Unknown command: %s", string(msg)))

	case tea.KeyMsg:
		if next, cmd, ok := m.handleGlobalKeys(msg); ok {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleSessionMsg processes results produced by the current session.
func (m Model) handleSessionMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.session

	switch msg := msg.(type) {
	case feed.OpenPostMsg:
		m.postView.SetPost(msg.PostID)
		m.previousView = m.currentView
		m.currentView = ViewPost
		return m, nil

	case feed.CountsStaleMsg:
		return m, m.syncCounts()

	case counter.SyncedMsg:
		m.noteAuth(msg.Err)
		var cmd tea.Cmd
		m.counter, cmd = m.counter.Update(msg)
		return m, s.bind(cmd)

	case appsync.ResultMsg:
		if synced, ok := msg.Msg.(counter.SyncedMsg); ok {
			m.noteAuth(synced.Err)
			m.counter.Apply(synced.Counts, synced.Err)
		}
		return m, s.bind(s.poller.WaitForNextResult())

	case feed.LoadedMsg:
		if msg.Err == nil {
			m.authHint = ""
		} else {
			m.noteAuth(msg.Err)
		}
	}

	var cmd tea.Cmd
	m.feed, cmd = m.feed.Update(msg)
	return m, s.bind(cmd)
}

// handleGlobalKeys intercepts keys that work above the active view. The
// bool result reports whether the key was consumed.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.endSession()
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil, true

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewFeed:
	default:
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.endSession()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Accounts):
		return m, m.openAccounts(), true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewFeed:
		if m.session == nil {
			return m, nil
		}
		m.feed, cmd = m.feed.Update(msg)
		cmd = m.session.bind(cmd)
	case ViewPost:
		m.postView, cmd = m.postView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewAccounts:
		m.accountView, cmd = m.accountView.Update(msg)
	}
	return m, cmd
}

// executeCommand runs a command palette entry.
func (m Model) executeCommand(name command.Name) (tea.Model, tea.Cmd) {
	switch name {
	case command.Refresh:
		return m, m.refresh()
	case command.ReadAll:
		if m.session == nil {
			return m, nil
		}
		return m, m.session.bind(m.feed.MarkAllRead())
	case command.Accounts:
		return m, m.openAccounts()
	case command.Quit:
		m.endSession()
		return m, tea.Quit
	}
	return m, nil
}

// startSession tears down the current session and starts one for acct:
// a fresh feed load, a counts sync and, when configured, counts polling.
func (m *Model) startSession(acct model.Account, token string) tea.Cmd {
	m.endSession()
	m.nextSession++

	svc := m.connect(acct, token)
	s := newSession(m.nextSession, acct, svc, m.opts.Config.Display)
	m.session = s

	w, h := m.layout.Width, m.layout.ContentHeight()
	m.feed = feed.New(s.ctx, svc, m.keys, m.opts.Config.Display.CategoryList(), w, h)
	m.counter = counter.New(s.ctx, svc)
	m.postView.SetBaseURL(acct.BaseURL)
	m.authHint = ""
	m.currentView = ViewFeed

	logging.For("app").WithField("account", acct.ID).Info("session started")

	cmds := []tea.Cmd{
		s.bind(m.feed.Load()),
		s.bind(m.counter.Sync()),
	}
	if s.polling() {
		cmds = append(cmds, s.bind(s.poller.Start()))
	}
	return tea.Batch(cmds...)
}

// endSession stops polling and abandons in-flight requests.
func (m *Model) endSession() {
	if m.session == nil {
		return
	}
	m.session.stop()
	m.session = nil
}

// refresh reloads the feed and re-syncs the counters.
func (m *Model) refresh() tea.Cmd {
	if m.session == nil {
		return nil
	}
	return tea.Batch(m.session.bind(m.feed.Load()), m.syncCounts())
}

// syncCounts asks the poller for an immediate run when polling, otherwise
// syncs directly.
func (m *Model) syncCounts() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	if s.polling() && s.poller.Running() {
		s.poller.Trigger(countsJob)
		return nil
	}
	return s.bind(m.counter.Sync())
}

func (m *Model) openAccounts() tea.Cmd {
	if m.currentView != ViewAccounts {
		m.previousView = m.currentView
	}
	m.currentView = ViewAccounts
	return m.accountView.Init()
}

// noteAuth records the reconfigure hint when err is a rejected token.
func (m *Model) noteAuth(err error) {
	if !api.IsAuthError(err) || m.session == nil {
		return
	}
	if m.session.account.ID == envAccountID {
		m.authHint = "StudyHub rejected the token. Check STUDYHUB_TOKEN."
		return
	}
	m.authHint = fmt.Sprintf("StudyHub rejected the token for %q. Press c to update the account.", m.session.account.Name)
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) resize() {
	w, h := m.layout.Width, m.layout.ContentHeight()
	if m.session != nil {
		m.feed.SetSize(w, h)
	}
	m.postView.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.accountView.SetSize(w, h)
}

// about describes the session for the help screen.
func (m Model) about() string {
	s := m.session
	if s == nil {
		return ""
	}
	sched := "counts sync once per session"
	if s.polling() {
		sched = fmt.Sprintf("counts sync every %s", s.interval)
		if st, ok := s.poller.Status(countsJob); ok && st.Failures > 0 {
			sched += fmt.Sprintf(" (backing off, next in %s)", st.NextDelay)
		}
	}
	return fmt.Sprintf("Account: %s (%s), %s, %d unread shown",
		s.account.Name, s.account.BaseURL, sched, m.feed.Feed().Unread())
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	counters := ""
	headerTitle := title
	if m.session != nil {
		counters = m.counter.View()
		headerTitle = fmt.Sprintf("%s · %s", title, m.session.account.Name)
		if m.feed.Loading() {
			headerTitle += " · refreshing"
		}
	}
	header := m.layout.RenderHeader(headerTitle, counters)
	return m.layout.RenderWithFrame(header, m.renderContent(), m.statusBar())
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		if m.session == nil {
			return feed.LoadingText
		}
		return m.feed.View()
	case ViewPost:
		return m.postView.View()
	case ViewHelp:
		help := m.helpView
		help.SetAbout(m.about())
		return help.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewAccounts:
		return m.accountView.View()
	default:
		return ""
	}
}

// statusBar shows, in order of priority, a transient failure, the auth
// hint, or the key hints.
func (m Model) statusBar() string {
	switch {
	case m.notice != "":
		return m.layout.RenderStatusError(m.notice)
	case m.session != nil && m.feed.Status() != "":
		return m.layout.RenderStatusError(m.feed.Status())
	case m.authHint != "":
		return m.layout.RenderStatusError(m.authHint)
	}
	return m.layout.RenderStatusBar(m.keyHints())
}

// keyHints returns context-sensitive keyboard hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewPost:
		return "esc: back"
	case ViewHelp:
		return "?/esc: close help"
	case ViewCommand:
		return "enter: run  esc: cancel"
	case ViewAccounts:
		return "a: add  e: edit  d: delete  t: test  enter: use  esc: back  ctrl+c: quit"
	}
	return m.helpView.ShortView()
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Account returns the signed-in account, if any.
func (m Model) Account() (model.Account, bool) {
	if m.session == nil {
		return model.Account{}, false
	}
	return m.session.account, true
}
