package render

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors for terminal output
type Theme struct {
	// Primary colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color

	// Text colors
	Text      lipgloss.Color
	TextMuted lipgloss.Color

	BackgroundSecondary lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border lipgloss.Color
}

// DefaultTheme returns the default warm theme
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#D2A679"), // Warm sandy/terracotta
		Secondary: lipgloss.Color("#5A4E40"), // Muted warm brown

		Text:      lipgloss.Color("#F0F0F0"),
		TextMuted: lipgloss.Color("#888888"),

		BackgroundSecondary: lipgloss.Color("#2d2d2d"),

		Success: lipgloss.Color("#10B981"), // Green
		Warning: lipgloss.Color("#F59E0B"), // Amber
		Error:   lipgloss.Color("#EF4444"), // Red
		Info:    lipgloss.Color("#7AA2F7"), // Blue for user

		Border: lipgloss.Color("#3d3d3d"),
	}
}

// styles are the lipgloss styles derived from a theme.
type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	system    lipgloss.Style
	muted     lipgloss.Style
	body      lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	errorText lipgloss.Style
	banner    lipgloss.Style
	badge     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		user:      lipgloss.NewStyle().Foreground(t.Info).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		tool:      lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true),
		system:    lipgloss.NewStyle().Foreground(t.Secondary).Italic(true),
		muted:     lipgloss.NewStyle().Foreground(t.TextMuted),
		body:      lipgloss.NewStyle().Foreground(t.Text).PaddingLeft(2),
		success:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warning:   lipgloss.NewStyle().Foreground(t.Warning),
		errorText: lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		banner: lipgloss.NewStyle().
			Foreground(t.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Error).
			Padding(0, 1),
		badge: lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Background(t.BackgroundSecondary).
			Padding(0, 1),
	}
}
