package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/livebridge/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Muted.Render("  Waiting for events..."),
		)
		return theme.Frame.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Frame.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Muted.Render(e.At.Format("15:04:05"))

	typeStyle := theme.Muted
	if status, ok := eventStatus(e.Type); ok {
		typeStyle = theme.Status(status)
	} else if e.Type == events.BridgeTick {
		typeStyle = theme.Accent
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-20s", e.Type))
	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if id, ok := data["request_id"].(float64); ok {
		parts = append(parts, fmt.Sprintf("#%d", int64(id)))
	}
	if connID, ok := data["conn_id"].(string); ok {
		if len(connID) > 8 {
			connID = connID[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", connID))
	}
	if action, ok := data["action"].(string); ok {
		parts = append(parts, action)
	}
	if n, ok := data["processed"].(float64); ok {
		parts = append(parts, fmt.Sprintf("processed=%d", int(n)))
	}
	if reason, ok := data["reason"].(string); ok {
		parts = append(parts, reason)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
