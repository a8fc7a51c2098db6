package theme

import (
	"github.com/charmbracelet/lipgloss/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"tableflip.dev/apphub/pkg/settings"
)

// Theme centralizes Lip Gloss styles for the launcher UI.
type Theme struct {
	Header HeaderTheme
	List   ListTheme
	Footer FooterTheme
}

// HeaderTheme styles the title and the search prompt.
type HeaderTheme struct {
	Title  lipgloss.Style
	Prompt lipgloss.Style
	Chip   lipgloss.Style
}

// ListTheme styles application rows.
type ListTheme struct {
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Pinned   lipgloss.Style
	Category lipgloss.Style
	Icon     lipgloss.Style
	NoIcon   lipgloss.Style
	Empty    lipgloss.Style
}

// FooterTheme styles the bottom status line.
type FooterTheme struct {
	Status lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
}

// Default returns the theme for the default accent on a dark terminal.
func Default() Theme {
	return New(settings.DefaultAccent, true)
}

// New builds the theme around an accent color. dark selects the neutral
// palette for dark or light terminals.
func New(accent string, dark bool) Theme {
	c, err := colorful.Hex(accent)
	if err != nil {
		c, _ = colorful.Hex(settings.DefaultAccent)
	}
	accentColor := lipgloss.Color(c.Hex())
	onAccent := lipgloss.Color(contrast(c))

	faint := lipgloss.Color("244")
	text := lipgloss.Color("252")
	if !dark {
		faint = lipgloss.Color("245")
		text = lipgloss.Color("235")
	}

	return Theme{
		Header: HeaderTheme{
			Title:  lipgloss.NewStyle().Foreground(accentColor).Bold(true),
			Prompt: lipgloss.NewStyle().Foreground(accentColor),
			Chip: lipgloss.NewStyle().
				Foreground(onAccent).
				Background(accentColor).
				Padding(0, 1),
		},
		List: ListTheme{
			Normal: lipgloss.NewStyle().Foreground(text),
			Selected: lipgloss.NewStyle().
				Foreground(onAccent).
				Background(accentColor).
				Bold(true),
			Pinned:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			Category: lipgloss.NewStyle().Foreground(faint),
			Icon:     lipgloss.NewStyle().Foreground(accentColor),
			NoIcon:   lipgloss.NewStyle().Foreground(faint),
			Empty:    lipgloss.NewStyle().Foreground(faint).Italic(true),
		},
		Footer: FooterTheme{
			Status: lipgloss.NewStyle().Foreground(faint),
			Help:   lipgloss.NewStyle().Foreground(faint),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
	}
}

// contrast picks black or white text for the background c.
func contrast(c colorful.Color) string {
	l, _, _ := c.Lab()
	if l > 0.6 {
		return "#000000"
	}
	return "#ffffff"
}
