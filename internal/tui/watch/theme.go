// Package watch implements the livebridge monitor TUI: live health counters,
// a table of recent commands and the raw event stream.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme holds the monitor palette. Command styles are keyed by the
// status column values so the table summary and event stream agree.
type Theme struct {
	Healthy  lipgloss.Style
	Degraded lipgloss.Style

	Completed lipgloss.Style
	Failed    lipgloss.Style
	Waiting   lipgloss.Style
	Dropped   lipgloss.Style

	Frame        lipgloss.Style
	Title        lipgloss.Style
	ColumnHeader lipgloss.Style
	Selected     lipgloss.Style
	Muted        lipgloss.Style
	Accent       lipgloss.Style
	Footer       lipgloss.Style

	// ActivityOn and ActivityOff draw the ●/○ activity dots.
	ActivityOn  lipgloss.Style
	ActivityOff lipgloss.Style
}

func NewDefaultTheme() Theme {
	frame := lipgloss.Color("#874BFD")
	green := lipgloss.Color("#00FF00")
	red := lipgloss.Color("#FF0000")
	grey := lipgloss.Color("#888888")

	return Theme{
		Healthy:  lipgloss.NewStyle().Bold(true).Foreground(green),
		Degraded: lipgloss.NewStyle().Bold(true).Foreground(red),

		Completed: lipgloss.NewStyle().Foreground(green),
		Failed:    lipgloss.NewStyle().Foreground(red),
		Waiting:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Dropped:   lipgloss.NewStyle().Foreground(lipgloss.Color("#D19A66")),

		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(frame),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		ColumnHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(frame),
		Muted:  lipgloss.NewStyle().Foreground(grey),
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Footer: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		ActivityOn:  lipgloss.NewStyle().Foreground(green),
		ActivityOff: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
	}
}

// Status returns the style for a command status value.
func (t Theme) Status(status string) lipgloss.Style {
	switch status {
	case statusOK:
		return t.Completed
	case statusError, statusTimeout, statusRejected:
		return t.Failed
	case statusQueued:
		return t.Waiting
	case statusCancelled, statusDiscarded, statusSkipped:
		return t.Dropped
	default:
		return t.Muted
	}
}
