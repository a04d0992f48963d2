// Package feed is the notification feed screen: it loads the pending
// notifications, routes them into their category spaces and handles
// dismissal, mark-read and title activation for the focused card.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/keys"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/theme"
	"github.com/nhle/studyhub-notify/internal/view"
)

// LoadingText is shown in every space until the first response arrives.
const LoadingText = "Loading notifications..."

// retryHint follows the loading text once the first load has failed.
const retryHint = "(press r to retry)"

// statusTTL is how long a transient status line stays visible.
const statusTTL = 4 * time.Second

// LoadedMsg carries the result of a feed fetch.
type LoadedMsg struct {
	Items []model.Notification
	Err   error
}

// RemovedMsg carries the result of a dismissal.
type RemovedMsg struct {
	ID  model.ID
	Err error
}

// ReadMsg carries the result of a mark-read call. All is set for
// mark-all-read.
type ReadMsg struct {
	ID  model.ID
	All bool
	Err error
}

// OpenPostMsg asks the parent to navigate to a post.
type OpenPostMsg struct {
	PostID model.ID
}

// CountsStaleMsg tells the parent the header counts no longer match the
// server after a successful mark-read.
type CountsStaleMsg struct{}

type clearStatusMsg struct {
	seq int
}

var spaceLabels = map[model.Category]string{
	model.CategoryPost:       "Posts",
	model.CategoryBadge:      "Badges",
	model.CategoryConnection: "Connections",
	model.CategoryMention:    "Mentions",
}

// Model is the feed view component.
type Model struct {
	ctx      context.Context
	service  api.NotificationService
	keys     *keys.KeyMap
	feed     *view.Feed
	viewport viewport.Model
	spinner  spinner.Model
	cursor   int
	loading  bool
	status   string
	seq      int
	width    int
	height   int
}

// New creates a feed model with one space per category. Requests are
// bound to ctx, so cancelling it abandons anything in flight.
func New(
	ctx context.Context,
	svc api.NotificationService,
	k *keys.KeyMap,
	categories []model.Category,
	width, height int,
) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		ctx:      ctx,
		service:  svc,
		keys:     k,
		feed:     view.NewFeed(categories),
		viewport: vp,
		spinner:  sp,
		width:    width,
		height:   height,
	}
	m.refreshContent()
	return m
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return m.Load()
}

// Load fetches the feed. While a load is in flight further calls return
// nil.
func (m *Model) Load() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.refreshContent()

	ctx, svc := m.ctx, m.service
	fetch := func() tea.Msg {
		items, err := svc.FetchNotifications(ctx)
		return LoadedMsg{Items: items, Err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

// Remove dismisses the notification with the given ID. It does not check
// whether the card is still rendered; the server treats a repeat as a
// no-op.
func (m Model) Remove(id model.ID) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return RemovedMsg{ID: id, Err: svc.RemoveNotification(ctx, id)}
	}
}

// MarkRead marks one notification read on the server.
func (m Model) MarkRead(id model.ID) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return ReadMsg{ID: id, Err: svc.MarkNotificationRead(ctx, id)}
	}
}

// MarkAllRead marks every notification read on the server.
func (m Model) MarkAllRead() tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return ReadMsg{All: true, Err: svc.MarkAllNotificationsRead(ctx)}
	}
}

// Activate handles activation of a card's title. Only post cards that
// reference a post navigate; everything else is inert.
func (m Model) Activate(id model.ID) tea.Cmd {
	card, ok := m.feed.Find(id)
	if !ok || !card.HasPost() {
		return nil
	}
	postID := card.PostID
	return func() tea.Msg {
		return OpenPostMsg{PostID: postID}
	}
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	log := logging.For("feed")

	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			log.WithError(msg.Err).Warn("loading notifications failed")
			cmd := m.setStatus(loadFailureText(msg.Err))
			m.refreshContent()
			return m, cmd
		}
		m.apply(msg.Items)
		log.Debugf("rendered %d of %d notifications", m.feed.Len(), len(msg.Items))
		return m, nil

	case RemovedMsg:
		if msg.Err != nil {
			log.WithError(msg.Err).WithField("id", msg.ID).Warn("removing notification failed")
			return m, m.setStatus("Could not dismiss notification")
		}
		if m.feed.Remove(msg.ID) {
			m.clampCursor()
			m.refreshContent()
		}
		return m, nil

	case ReadMsg:
		if msg.Err != nil {
			log.WithError(msg.Err).WithField("id", msg.ID).Warn("marking notification read failed")
			return m, m.setStatus("Could not mark notification read")
		}
		if msg.All {
			m.feed.MarkAllRead()
		} else {
			m.feed.MarkRead(msg.ID)
		}
		m.refreshContent()
		return m, func() tea.Msg { return CountsStaleMsg{} }

	case clearStatusMsg:
		if msg.seq == m.seq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !m.feed.Loaded() {
			m.refreshContent()
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKeys is the single handler for the feed region. It resolves the
// focused card and acts on that card's ID.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.feed.Len()-1 {
			m.cursor++
			m.refreshContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refreshContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.MarkAllRead()
	}

	card, ok := m.Focused()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		return m, m.Activate(card.ID)
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.Remove(card.ID)
	case key.Matches(msg, m.keys.MarkRead):
		if !card.Unread {
			return m, nil
		}
		return m, m.MarkRead(card.ID)
	}
	return m, nil
}

// apply replaces the rendered feed with a server snapshot.
func (m *Model) apply(items []model.Notification) {
	if len(items) == 0 {
		m.feed.ShowEmpty()
	} else {
		m.feed.Reset()
		m.feed.Render(items)
	}
	m.clampCursor()
	m.refreshContent()
}

// loadFailureText names the kind of failure so an expired token or an
// unreachable server can be told apart from a server fault.
func loadFailureText(err error) string {
	switch {
	case api.IsAuthError(err):
		return "Could not load notifications: token rejected"
	case api.IsTransportError(err):
		return "Could not load notifications: server unreachable"
	case api.IsStatusError(err):
		return "Could not load notifications: server error"
	}
	return "Could not load notifications"
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.seq++
	m.status = text
	seq := m.seq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) clampCursor() {
	if n := m.feed.Len(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the feed.
func (m Model) View() string {
	return m.viewport.View()
}

// refreshContent re-renders the spaces into the viewport and keeps the
// focused card visible.
func (m *Model) refreshContent() {
	content, focusRow, focusHeight := m.render()
	m.viewport.SetContent(content)

	if focusRow < 0 {
		return
	}
	switch {
	case focusRow < m.viewport.YOffset, focusHeight > m.viewport.Height:
		m.viewport.SetYOffset(focusRow)
	case focusRow+focusHeight > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(focusRow + focusHeight - m.viewport.Height)
	}
}

// render builds the feed content. It returns the terminal row the focused
// card starts on and its height in rows, or -1 when nothing is focused.
func (m Model) render() (string, int, int) {
	var lines []string
	rows := 0
	focusRow, focusHeight := -1, 0
	pos := 0
	width := max(m.width-4, 20)

	add := func(entry string) {
		lines = append(lines, entry)
		rows += lipgloss.Height(entry)
	}

	for _, space := range m.feed.Spaces() {
		label, ok := spaceLabels[space.Category]
		if !ok {
			label = string(space.Category)
		}
		title := theme.CategoryStyle(string(space.Category)).Render(label)
		if len(space.Cards) > 0 {
			title += theme.HelpStyle.Render(fmt.Sprintf(" (%d)", len(space.Cards)))
		}
		add(theme.SpaceTitleStyle.Width(width).Render(title))

		switch {
		case !m.feed.Loaded() && m.loading:
			add(theme.PlaceholderStyle.Render(m.spinner.View() + " " + LoadingText))
		case !m.feed.Loaded():
			add(theme.PlaceholderStyle.Render(LoadingText + " " + retryHint))
		case space.Placeholder != "":
			add(theme.PlaceholderStyle.Render(space.Placeholder))
		case len(space.Cards) == 0:
			add(theme.PlaceholderStyle.Render(view.EmptyText))
		}

		for _, card := range space.Cards {
			entry := renderCard(card, pos == m.cursor, width)
			if pos == m.cursor {
				focusRow, focusHeight = rows, lipgloss.Height(entry)
			}
			add(entry)
			pos++
		}
		add("")
	}

	return strings.Join(lines, "\n"), focusRow, focusHeight
}

func renderCard(card view.Card, selected bool, width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	if card.Unread {
		titleStyle = titleStyle.Bold(true)
	}
	if card.HasPost() {
		titleStyle = titleStyle.Underline(true)
	}

	head := theme.UnreadMarker(card.Unread) + " " + titleStyle.Render(card.Title)
	if card.Type != "" {
		head += theme.TypeTagStyle().Render("[" + card.Type + "]")
	}
	meta := theme.HelpStyle.Render(card.Timestamp)

	body := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(width - 4).
		Render(card.Body)

	content := lipgloss.JoinVertical(lipgloss.Left, head, "  "+body, "  "+meta)
	if selected {
		return theme.SelectedCardStyle.Render(content)
	}
	return theme.CardStyle.Render(content)
}

// SetSize updates the feed dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refreshContent()
}

// Feed returns the rendered view tree.
func (m Model) Feed() *view.Feed {
	return m.feed
}

// Focused returns the card under the cursor.
func (m Model) Focused() (view.Card, bool) {
	return m.feed.Dispatch(m.cursor)
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// Status returns the transient status line, if any.
func (m Model) Status() string {
	return m.status
}
