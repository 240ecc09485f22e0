// Package ui renders the live chart view: a bubbletea model fed by
// fetch events, a braille canvas, and the styling around them.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode colors
	LightBackground = lipgloss.Color("#fafafa")
	LightForeground = lipgloss.Color("#2a2e35")
	LightAccent     = lipgloss.Color("#0969da")
	LightMuted      = lipgloss.Color("#6e7781")
	LightBorder     = lipgloss.Color("#d0d7de")

	// Dark mode colors
	DarkBackground = lipgloss.Color("#0d1117")
	DarkForeground = lipgloss.Color("#c9d1d9")
	DarkAccent     = lipgloss.Color("#58a6ff")
	DarkMuted      = lipgloss.Color("#8b949e")
	DarkBorder     = lipgloss.Color("#30363d")

	// Semantic colors (same in both modes)
	Destructive = lipgloss.Color("#e5534b")
	Warning     = lipgloss.Color("#d4a72c")
	Success     = lipgloss.Color("#57ab5a")

	// Chart colors, cycled per series
	Chart1 = lipgloss.Color("#4db6ac") // teal
	Chart2 = lipgloss.Color("#e57373") // red
	Chart3 = lipgloss.Color("#ffd54f") // yellow
	Chart4 = lipgloss.Color("#64b5f6") // blue
	Chart5 = lipgloss.Color("#ba68c8") // purple
	Chart6 = lipgloss.Color("#ff8a65") // orange
)

var chartPalette = []lipgloss.Color{Chart1, Chart2, Chart3, Chart4, Chart5, Chart6}

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme guesses the theme from the terminal. COLORFGBG is the
// usual "foreground;background" pair, a light background index means
// a light terminal. Everything else defaults to dark.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) >= 2 {
			if bgIdx, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				if bgIdx == 7 || bgIdx >= 9 {
					return LightTheme()
				}
			}
		}
	}
	return DarkTheme()
}

// ThemeByName maps a config value to a theme. Unknown names fall back
// to terminal detection.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components of the chart view.
type Styles struct {
	Theme Theme

	// Layout
	Header lipgloss.Style
	Footer lipgloss.Style

	// Chart
	Axis      lipgloss.Style
	AxisTitle lipgloss.Style
	Legend    lipgloss.Style

	// Status
	EpochBadge  lipgloss.Style
	ModeBadge   lipgloss.Style
	ErrorBanner lipgloss.Style
	Paused      lipgloss.Style

	// Text
	Muted lipgloss.Style
	Bold  lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Axis: lipgloss.NewStyle().
			Foreground(theme.Muted),

		AxisTitle: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Legend: lipgloss.NewStyle().
			Padding(0, 1),

		EpochBadge: lipgloss.NewStyle().
			Foreground(theme.Background).
			Background(theme.Accent).
			Padding(0, 1).
			Bold(true),

		ModeBadge: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		ErrorBanner: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true).
			Padding(0, 1),

		Paused: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// SeriesStyle colors the i-th series, cycling through the palette.
func (s Styles) SeriesStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
}
