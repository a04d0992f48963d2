package post

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/studyhub-notify/internal/keys"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/theme"
)

// BackMsg signals the parent to navigate back to the feed.
type BackMsg struct{}

// Model is the post view reached by activating a post notification's
// title.
type Model struct {
	baseURL  string
	postID   model.ID
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a post view for posts hosted under baseURL.
func New(baseURL string, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		baseURL:  strings.TrimRight(baseURL, "/"),
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// URL returns the web address of a post.
func URL(baseURL string, id model.ID) string {
	return strings.TrimRight(baseURL, "/") + "/posts/" + url.PathEscape(string(id))
}

// Update handles messages for the post view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the post view.
func (m Model) View() string {
	if m.postID == "" {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No post selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
			Render(fmt.Sprintf("Post #%s", m.postID)),
		"",
		fmt.Sprintf("%s  %s", metaStyle.Render("URL:"), valStyle.Render(URL(m.baseURL, m.postID))),
		"",
		theme.HelpStyle.Render("Open the link in a browser to read the post. esc to go back."),
	}
	return theme.PanelStyle.
		Width(max(m.width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetPost switches the view to a post and re-renders the content.
func (m *Model) SetPost(id model.ID) {
	m.postID = id
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// PostID returns the post being shown.
func (m Model) PostID() model.ID {
	return m.postID
}

// SetBaseURL changes the server the post links point to.
func (m *Model) SetBaseURL(baseURL string) {
	m.baseURL = strings.TrimRight(baseURL, "/")
}

// SetSize updates the post view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.postID != "" {
		m.viewport.SetContent(m.renderContent())
	}
}
