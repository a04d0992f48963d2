package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/studyhub-notify/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Refresh  Name = "refresh"
	ReadAll  Name = "read all"
	Accounts Name = "accounts"
	Quit     Name = "quit"
)

// Names lists the palette commands in suggestion order.
var Names = []Name{Refresh, ReadAll, Accounts, Quit}

var aliases = map[string]Name{
	"r":        Refresh,
	"reload":   Refresh,
	"read-all": ReadAll,
	"readall":  ReadAll,
	"account":  Accounts,
	"q":        Quit,
	"exit":     Quit,
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg Name

// UnknownMsg is emitted for input that names no command.
type UnknownMsg string

// Parse maps user input to a command, accepting a few aliases.
func Parse(input string) (Name, bool) {
	s := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	for _, n := range Names {
		if s == string(n) {
			return n, true
		}
	}
	n, ok := aliases[s]
	return n, ok
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6
	ti.ShowSuggestions = true

	suggestions := make([]string, len(Names))
	for i, n := range Names {
		suggestions[i] = string(n)
	}
	ti.SetSuggestions(suggestions)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		input := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if input == "" {
			return m, nil
		}
		if name, ok := Parse(input); ok {
			return m, func() tea.Msg { return CommandMsg(name) }
		}
		return m, func() tea.Msg { return UnknownMsg(input) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	names := make([]string, len(Names))
	for i, n := range Names {
		names[i] = string(n)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
		theme.HelpStyle.Render(strings.Join(names, " · ")),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
