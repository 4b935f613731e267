package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tunestream/tunestream/internal/adapter/ui/presenter"
	"github.com/tunestream/tunestream/internal/domain"
)

const progressWidth = 20

// StatusLine renders the player as a single, continuously rewritten terminal line.
type StatusLine struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	color bool
}

// NewStatusLine creates a status line writing to out. Lines are cut to width
// columns when width is positive. Colors are used only when color is set.
func NewStatusLine(out io.Writer, width int, color bool) *StatusLine {
	return &StatusLine{out: out, width: width, color: color}
}

// Render rewrites the status line.
func (v *StatusLine) Render(status presenter.Status) {
	line := FormatStatus(status)
	if v.width > 0 {
		line = text.Trim(line, v.width)
	}
	if v.color {
		line = stateColor(status).Sprint(line)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = fmt.Fprint(v.out, "\r\033[K"+line)
}

// Notify prints message on its own line above the status line.
func (v *StatusLine) Notify(message string) {
	if v.color {
		message = text.FgHiRed.Sprint(message)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Raw mode needs an explicit carriage return
	_, _ = fmt.Fprint(v.out, "\r\033[K"+message+"\r\n")
}

func stateColor(status presenter.Status) text.Colors {
	switch {
	case status.State == domain.StateEmpty:
		return text.Colors{text.FgHiBlack}
	case status.Playing:
		return text.Colors{text.FgGreen}
	default:
		return text.Colors{text.FgYellow}
	}
}

// FormatStatus renders status without colors. The mini view shows only the
// title and clock.
func FormatStatus(status presenter.Status) string {
	if status.Count == 0 {
		return "■ nothing to play"
	}

	icon := "⏸"
	switch {
	case status.State == domain.StateEmpty:
		icon = "■"
	case status.Playing:
		icon = "▶"
	}

	title := status.Title
	if title == "" {
		title = "untitled"
	}
	clock := formatClock(status.Position) + " / " + formatClock(status.Duration)

	if status.Mini {
		return fmt.Sprintf("%s %s  %s", icon, title, clock)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%d/%d] %s - %s  %s %s",
		icon, status.Index+1, status.Count, title, status.Artist,
		progressBar(status.Position, status.Duration), clock)
	fmt.Fprintf(&b, "  repeat:%s", status.Repeat)
	if status.Shuffling {
		b.WriteString("  shuffle")
	}
	fmt.Fprintf(&b, "  vol:%d%%", int(status.Volume*100+0.5))
	return b.String()
}

func progressBar(position, duration time.Duration) string {
	filled := 0
	if duration > 0 {
		filled = int(float64(position) / float64(duration) * progressWidth)
	}
	filled = min(max(filled, 0), progressWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
}

// formatClock renders d as m:ss, or h:mm:ss from one hour on.
func formatClock(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var _ presenter.View = (*StatusLine)(nil)
