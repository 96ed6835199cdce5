package ui

import (
	"github.com/charmbracelet/lipgloss"

	"haru/internal/todo"
)

// styles is the palette the views render with. Two fixed palettes, one per
// theme mode.
type styles struct {
	title       lipgloss.Style
	groupHeader lipgloss.Style
	groupDate   lipgloss.Style
	overdue     lipgloss.Style
	done        lipgloss.Style
	cursor      lipgloss.Style
	match       lipgloss.Style
	muted       lipgloss.Style
	status      lipgloss.Style
	help        lipgloss.Style
}

func lightStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("55")),
		groupHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("24")),
		groupDate:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		overdue:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		done:        lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("245")),
		cursor:      lipgloss.NewStyle().Foreground(lipgloss.Color("55")),
		match:       lipgloss.NewStyle().Background(lipgloss.Color("220")).Foreground(lipgloss.Color("235")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

func darkStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("183")),
		groupHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117")),
		groupDate:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		overdue:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		done:        lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("243")),
		cursor:      lipgloss.NewStyle().Foreground(lipgloss.Color("183")),
		match:       lipgloss.NewStyle().Background(lipgloss.Color("178")).Foreground(lipgloss.Color("235")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func stylesFor(mode todo.ThemeMode) styles {
	if mode == todo.ModeDark {
		return darkStyles()
	}
	return lightStyles()
}

// renderHighlighted renders highlight segments, marking matches.
func renderHighlighted(s styles, segs []todo.Segment) string {
	out := ""
	for _, seg := range segs {
		if seg.Match {
			out += s.match.Render(seg.Text)
			continue
		}
		out += seg.Text
	}
	return out
}
