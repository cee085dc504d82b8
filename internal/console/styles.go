package console

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles for console rendering.
type styles struct {
	title   lipgloss.Style
	prompt  lipgloss.Style
	goalID  lipgloss.Style
	done    lipgloss.Style
	active  lipgloss.Style
	failed  lipgloss.Style
	pending lipgloss.Style
	errText lipgloss.Style
	dim     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		goalID:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		done:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		active:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		pending: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errText: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
