package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

// ProgressTracker renders a processed/total bar for the per-connection loop
type ProgressTracker struct {
	bar       progress.Model
	out       io.Writer
	total     int
	processed int
	failed    int
	mu        sync.Mutex
}

// New creates a ProgressTracker writing to out. A nil out disables rendering
// but counting still works.
func New(out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		out: out,
	}
}

// SetTotal sets the number of connections to process
func (p *ProgressTracker) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Increment marks one more connection as processed and redraws the bar
func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	p.render()
}

// Fail counts a connection that could not be scraped. It still advances the bar.
func (p *ProgressTracker) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	p.failed++
	p.render()
}

// Processed returns the number of connections handled so far
func (p *ProgressTracker) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Failed returns the number of connections that failed
func (p *ProgressTracker) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Finish ends the progress line and prints a summary
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", summaryStyle.Render(
		fmt.Sprintf("Fetched %d/%d connections (%d failed)", p.processed-p.failed, p.total, p.failed)))
}

func (p *ProgressTracker) fraction() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.processed) / float64(p.total)
}

func (p *ProgressTracker) render() {
	if p.out == nil || p.total == 0 {
		return
	}
	fmt.Fprintf(p.out, "\rFetching Connections %s %d/%d",
		p.bar.ViewAs(p.fraction()),
		p.processed,
		p.total)
}
