package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar shows completed requests of a known total. It redraws at
// most once per percent so concurrent workers do not flood the terminal.
type ProgressBar struct {
	w     io.Writer
	title string
	total int64
	done  int64
	shown int
	width int
	mu    sync.Mutex
}

// NewProgressBar creates a progress bar for total requests.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		shown: -1,
		width: 40,
	}
}

// Increment adds n completed requests.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	if pct := p.percent(); pct != p.shown {
		p.shown = pct
		p.render()
	}
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.shown = 100
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) percent() int {
	if p.total <= 0 {
		return 100
	}
	pct := int(p.done * 100 / p.total)
	return min(pct, 100)
}

func (p *ProgressBar) render() {
	filled := p.width * p.shown / 100
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %3d%% (%d/%d)", p.title, bar, p.shown, min(p.done, p.total), p.total)
}
