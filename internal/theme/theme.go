package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStatusStyle renders transient failures in the status bar.
var ErrorStatusStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// PanelStyle wraps overlays and the post view.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SpaceTitleStyle heads each category space.
var SpaceTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Border(lipgloss.NormalBorder(), false, false, true, false).
	BorderForeground(ColorBorder)

// CardStyle is the base style for a notification card.
var CardStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedCardStyle highlights the focused card.
var SelectedCardStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// PlaceholderStyle renders the empty and loading states.
var PlaceholderStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true).
	PaddingLeft(2)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// CounterStyle renders a header count.
var CounterStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// CategoryStyle returns a color-coded style for a notification category.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch category {
	case "post":
		return base.Foreground(ColorBlue)
	case "badge":
		return base.Foreground(ColorYellow)
	case "connection":
		return base.Foreground(ColorGreen)
	case "mention":
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// TypeTagStyle renders the small notification_type tag on a card.
func TypeTagStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorGray).
		Padding(0, 1)
}

// UnreadMarker is the glyph shown before unread cards.
func UnreadMarker(unread bool) string {
	if !unread {
		return " "
	}
	return lipgloss.NewStyle().Foreground(ColorBlue).Render("●")
}
