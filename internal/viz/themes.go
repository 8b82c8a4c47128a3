package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette of the live view.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "ink",
		Primary: lipgloss.Color("#00ffff"), Secondary: lipgloss.Color("#ff00ff"), Accent: lipgloss.Color("#ffff00"),
		Text: lipgloss.Color("#ffffff"), Muted: lipgloss.Color("#666666"),
		Success: lipgloss.Color("#00ff00"), Warning: lipgloss.Color("#ff8800"), Error: lipgloss.Color("#ff0000"),
	},
	{
		Name:    "phosphor",
		Primary: lipgloss.Color("#00cc00"), Secondary: lipgloss.Color("#00ff00"), Accent: lipgloss.Color("#88ff88"),
		Text: lipgloss.Color("#00ff00"), Muted: lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"), Warning: lipgloss.Color("#ffff00"), Error: lipgloss.Color("#ff0000"),
	},
	{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"), Secondary: lipgloss.Color("#00a8cc"), Accent: lipgloss.Color("#ffd700"),
		Text: lipgloss.Color("#e0f0ff"), Muted: lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"), Warning: lipgloss.Color("#ffcc00"), Error: lipgloss.Color("#ff4444"),
	},
}

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

// next returns the theme after t, wrapping around.
func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// walkerStyle colors walkers by how many share a cell.
func (t Theme) walkerStyle(density float64) lipgloss.Style {
	switch {
	case density > 0.66:
		return lipgloss.NewStyle().Foreground(t.Accent)
	case density > 0.33:
		return lipgloss.NewStyle().Foreground(t.Secondary)
	}
	return lipgloss.NewStyle().Foreground(t.Primary)
}
