package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/livebridge/internal/events"
)

const (
	statusQueued    = "queued"
	statusOK        = "ok"
	statusError     = "error"
	statusTimeout   = "timeout"
	statusCancelled = "cancelled"
	statusDiscarded = "discarded"
	statusSkipped   = "skipped"
	statusRejected  = "rejected"
)

const maxCommands = 50

// CommandState is what the monitor knows about one request ID.
type CommandState struct {
	ID       uint64
	Action   string
	Status   string
	WaitedMS int64
	RunMS    int64
}

// commandPayload covers the fields the bridge puts in command.* events.
type commandPayload struct {
	RequestID  uint64 `json:"request_id"`
	Action     string `json:"action"`
	OK         *bool  `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
	WaitedMS   int64  `json:"waited_ms"`
}

// updateCommandState folds one event into cmds, evicting the oldest IDs
// beyond maxCommands. It reports whether the event was a command event.
func updateCommandState(cmds map[uint64]*CommandState, e events.Event) bool {
	status, ok := eventStatus(e.Type)
	if !ok {
		return false
	}

	var p commandPayload
	if err := json.Unmarshal(e.Data, &p); err != nil || p.RequestID == 0 {
		return false
	}

	c, ok := cmds[p.RequestID]
	if !ok {
		c = &CommandState{ID: p.RequestID, Action: p.Action}
		cmds[p.RequestID] = c
	}
	// A late completion never downgrades a timeout the client already saw.
	if c.Status == statusTimeout && e.Type == events.CommandDiscarded {
		return true
	}
	if p.OK != nil && !*p.OK && status == statusOK {
		status = statusError
	}
	c.Status = status
	if e.Type == events.CommandCompleted {
		c.RunMS = p.DurationMS
		c.WaitedMS = p.WaitedMS
	}

	if len(cmds) > maxCommands {
		ids := sortedIDs(cmds)
		for _, id := range ids[:len(ids)-maxCommands] {
			delete(cmds, id)
		}
	}
	return true
}

// eventStatus maps a command.* event type to the status column value.
func eventStatus(t events.Kind) (string, bool) {
	switch t {
	case events.CommandEnqueued:
		return statusQueued, true
	case events.CommandCompleted:
		return statusOK, true
	case events.CommandTimeout:
		return statusTimeout, true
	case events.CommandCancelled:
		return statusCancelled, true
	case events.CommandDiscarded:
		return statusDiscarded, true
	case events.CommandSkipped:
		return statusSkipped, true
	case events.CommandRejected:
		return statusRejected, true
	}
	return "", false
}

func sortedIDs(cmds map[uint64]*CommandState) []uint64 {
	ids := make([]uint64, 0, len(cmds))
	for id := range cmds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func newCommandTable(theme Theme) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Action", Width: 24},
			{Title: "Status", Width: 10},
			{Title: "Wait", Width: 8},
			{Title: "Run", Width: 8},
		}),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Foreground(theme.ColumnHeader.GetForeground()).
		Bold(true)
	styles.Selected = styles.Selected.Inherit(theme.Selected)
	t.SetStyles(styles)
	return t
}

// commandRows lists cmds newest first.
func commandRows(cmds map[uint64]*CommandState) []table.Row {
	ids := sortedIDs(cmds)
	rows := make([]table.Row, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		c := cmds[ids[i]]
		wait, run := "-", "-"
		if c.Status == statusOK || c.Status == statusError {
			wait = fmt.Sprintf("%dms", c.WaitedMS)
			run = fmt.Sprintf("%dms", c.RunMS)
		}
		rows = append(rows, table.Row{fmt.Sprint(c.ID), c.Action, c.Status, wait, run})
	}
	return rows
}

func renderCommands(t table.Model, cmds map[uint64]*CommandState, theme Theme, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("RECENT COMMANDS"),
		t.View(),
		statusSummary(cmds, theme),
	)
	return theme.Frame.Width(width - 4).Render(content)
}

// statusSummary counts the tracked commands per status, in column order.
func statusSummary(cmds map[uint64]*CommandState, theme Theme) string {
	counts := make(map[string]int)
	for _, c := range cmds {
		counts[c.Status]++
	}
	var parts []string
	for _, status := range []string{statusQueued, statusOK, statusError, statusTimeout, statusCancelled, statusDiscarded, statusSkipped, statusRejected} {
		if n := counts[status]; n > 0 {
			parts = append(parts, theme.Status(status).Render(fmt.Sprintf("%s %d", status, n)))
		}
	}
	if len(parts) == 0 {
		return theme.Muted.Render(" no commands yet")
	}
	return " " + strings.Join(parts, "  ")
}
