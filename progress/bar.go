package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 40

var (
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
)

// Bar renders Stat snapshots as a single, continuously redrawn terminal line.
type Bar struct {
	out      io.Writer
	model    progress.Model
	interval time.Duration

	mu       sync.Mutex
	last     time.Time
	lastStat Stat
	drawn    bool
}

// NewBar returns a bar writing to out. Redraws closer together than interval are
// skipped, except the one completing the transfer.
func NewBar(out io.Writer, interval time.Duration) *Bar {
	return &Bar{
		out:      out,
		model:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
		interval: interval,
		mu:       sync.Mutex{},
		last:     time.Time{},
		lastStat: Stat{Done: 0, Total: 0, Elapsed: 0},
		drawn:    false,
	}
}

func (b *Bar) Start(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out, messageStyle.Render(message))
}

// Observe is a Func.
func (b *Bar) Observe(s Stat) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	complete := s.Total > 0 && s.Done >= s.Total
	if b.drawn && !complete && now.Sub(b.last) < b.interval {
		b.lastStat = s
		return
	}
	b.last = now
	b.lastStat = s
	b.drawn = true
	fmt.Fprint(b.out, "\r"+Line(b.model, s))
}

// Break ends the line being redrawn so other output starts on a fresh line. The next
// Observe draws immediately.
func (b *Bar) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawn {
		fmt.Fprintln(b.out)
		b.drawn = false
	}
}

func (b *Bar) Finish(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawn {
		fmt.Fprint(b.out, "\r"+Line(b.model, b.lastStat)+"\n")
	}
	fmt.Fprintln(b.out, doneStyle.Render(message))
	b.drawn = false
}

// Line formats s as "[elapsed] bar done/total (rate/s, eta)".
func Line(model progress.Model, s Stat) string {
	var sb strings.Builder
	sb.WriteString(dimStyle.Render("[" + formatClock(s.Elapsed) + "]"))
	sb.WriteByte(' ')
	sb.WriteString(model.ViewAs(s.Fraction()))
	sb.WriteByte(' ')
	sb.WriteString(FormatBytes(s.Done))
	sb.WriteByte('/')
	sb.WriteString(FormatBytes(s.Total))
	sb.WriteString(" (")
	sb.WriteString(FormatBytes(int64(s.Rate())))
	sb.WriteString("/s, ")
	sb.WriteString(formatClock(s.ETA()))
	sb.WriteByte(')')
	return sb.String()
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

// FormatBytes renders n with binary unit prefixes, e.g. 1.50 MiB.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
