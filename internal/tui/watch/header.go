package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HealthState tracks bridge health from /healthz polling.
type HealthState struct {
	healthMsg
	Connected bool
	LastCheck time.Time
}

// Ticker rotates on every bridge.tick event; a frozen glyph means the host
// has stopped draining the queue.
type Ticker struct {
	frames   []string
	index    int
	lastTick time.Time
}

func NewTicker() Ticker {
	return Ticker{frames: []string{"⟲", "⟳"}}
}

func (t *Ticker) Tick() {
	t.index = (t.index + 1) % len(t.frames)
	t.lastTick = time.Now()
}

func (t Ticker) Current() string {
	return t.frames[t.index]
}

// Spinner shows event activity with dots that fade after the last event.
type Spinner struct {
	dots      int
	lastEvent time.Time
}

func (s *Spinner) OnEvent() {
	s.dots = 5
	s.lastEvent = time.Now()
}

// Decay drops one dot per two idle seconds.
func (s *Spinner) Decay() {
	if s.dots == 0 {
		return
	}
	s.dots = max(0, 5-int(time.Since(s.lastEvent)/(2*time.Second)))
}

func (s Spinner) Render(theme Theme) string {
	var b strings.Builder
	for i := range 5 {
		if i < s.dots {
			b.WriteString(theme.ActivityOn.Render("●"))
		} else {
			b.WriteString(theme.ActivityOff.Render("○"))
		}
	}
	return b.String()
}

func renderHeader(h HealthState, ticker Ticker, spinner Spinner, theme Theme, width int) string {
	innerWidth := width - 4

	statusText := theme.Healthy.Render("HEALTHY")
	if !h.Connected {
		statusText = theme.Degraded.Render("CONNECTING")
	} else if h.Status != "ok" && h.Status != "" {
		statusText = theme.Degraded.Render("DEGRADED")
	}

	lastEventStr := "never"
	if !spinner.lastEvent.IsZero() {
		lastEventStr = fmt.Sprintf("%s ago", time.Since(spinner.lastEvent).Round(time.Second))
	}

	titleText := fmt.Sprintf(" LIVEBRIDGE MONITOR %s", theme.Accent.Render(ticker.Current()))
	clock := theme.Muted.Render(time.Now().Format("15:04:05"))
	pad := max(1, innerWidth-lipgloss.Width(titleText)-lipgloss.Width(clock)-4)
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	statsLine := fmt.Sprintf(" %s  up %s  Queue: %d  Pending: %d  Conns: %d/%d  Tools: %d",
		statusText,
		formatDuration(time.Duration(h.UptimeSeconds)*time.Second),
		h.QueueDepth,
		h.PendingRequests,
		h.ActiveConnections,
		h.TotalConnections,
		h.ToolCount,
	)

	countersLine := fmt.Sprintf(" done %d  timeout %s  cancelled %d  discarded %d  skipped %d  rejected %s  bad frames %d",
		h.Processed,
		failCount(theme, h.TimedOut),
		h.Cancelled,
		h.Discarded,
		h.Skipped,
		failCount(theme, h.Rejected),
		h.ProtocolErrors,
	)

	activityLine := fmt.Sprintf(" Last event: %s %s", lastEventStr, spinner.Render(theme))

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine, countersLine, activityLine)
	return theme.Frame.Width(innerWidth).Render(content)
}

func failCount(theme Theme, n uint64) string {
	if n == 0 {
		return "0"
	}
	return theme.Failed.Render(fmt.Sprint(n))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
