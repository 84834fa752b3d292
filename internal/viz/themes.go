package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour set of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color // particles, headers
	Accent  lipgloss.Color // energy chart
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeSteel = Theme{
		Name:    "steel",
		Primary: lipgloss.Color("#8fb8de"),
		Accent:  lipgloss.Color("#00d7af"),
		Text:    lipgloss.Color("#e4e4e4"),
		Muted:   lipgloss.Color("#6c6c6c"),
		Warning: lipgloss.Color("#ffaf00"),
		Error:   lipgloss.Color("#ff5f5f"),
	}

	ThemeClay = Theme{
		Name:    "clay",
		Primary: lipgloss.Color("#d7875f"),
		Accent:  lipgloss.Color("#ffd75f"),
		Text:    lipgloss.Color("#ffffd7"),
		Muted:   lipgloss.Color("#875f5f"),
		Warning: lipgloss.Color("#ffaf5f"),
		Error:   lipgloss.Color("#ff5f87"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#bcbcbc"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#808080"),
		Warning: lipgloss.Color("#ffffff"),
		Error:   lipgloss.Color("#ffffff"),
	}

	Themes = []Theme{ThemeSteel, ThemeClay, ThemeMono}
)

// GetTheme returns a theme by name, or the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
