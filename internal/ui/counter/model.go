// Package counter keeps the header's unread notification and message
// counts in step with the server.
package counter

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/theme"
	"github.com/nhle/studyhub-notify/internal/view"
)

// SyncedMsg carries the result of a counts fetch.
type SyncedMsg struct {
	Counts model.Counts
	Err    error
}

// Model owns the two header displays.
type Model struct {
	ctx           context.Context
	service       api.NotificationService
	notifications *view.Counter
	messages      *view.Counter
	syncing       bool
}

// New creates a counter model with both displays at the placeholder.
func New(ctx context.Context, svc api.NotificationService) Model {
	return Model{
		ctx:           ctx,
		service:       svc,
		notifications: view.NewCounter("Notifications"),
		messages:      view.NewCounter("Messages"),
	}
}

// Sync fetches the counts. While a sync is in flight further calls return
// nil.
func (m *Model) Sync() tea.Cmd {
	if m.syncing {
		return nil
	}
	m.syncing = true

	fetch := Fetcher(m.service)
	ctx := m.ctx
	return func() tea.Msg {
		msg, _ := fetch(ctx)
		return msg
	}
}

// Fetcher returns a poll function that fetches the counts and wraps them
// in a SyncedMsg.
func Fetcher(svc api.NotificationService) func(ctx context.Context) (tea.Msg, error) {
	return func(ctx context.Context) (tea.Msg, error) {
		counts, err := svc.FetchCounts(ctx)
		return SyncedMsg{Counts: counts, Err: err}, err
	}
}

// Update handles messages for the counter.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(SyncedMsg); ok {
		m.syncing = false
		m.Apply(msg.Counts, msg.Err)
	}
	return m, nil
}

// Apply writes the counts verbatim into the displays. On error nothing is
// written and the previous values stay.
func (m *Model) Apply(counts model.Counts, err error) {
	if err != nil {
		logging.For("counter").WithError(err).Debug("counts sync failed")
		return
	}
	m.notifications.Set(counts.Notifications)
	m.messages.Set(counts.Messages)
}

// Syncing reports whether a sync is in flight.
func (m Model) Syncing() bool {
	return m.syncing
}

// Notifications returns the displayed notification count.
func (m Model) Notifications() string {
	return m.notifications.Text()
}

// Messages returns the displayed message count.
func (m Model) Messages() string {
	return m.messages.Text()
}

// View renders both counters for the header.
func (m Model) View() string {
	render := func(c *view.Counter) string {
		return c.Label + " " + theme.CounterStyle.Render(c.Text())
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		render(m.notifications),
		"  ",
		render(m.messages),
	)
}
