// Package output renders plain terminal output: progress bars and tables.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress shows a bar advancing once per finished mod.
// A hidden Progress does nothing, so callers need no nil checks.
type Progress struct {
	mu          sync.Mutex
	out         io.Writer
	description string
	visible     bool
	bar         *progressbar.ProgressBar
}

func NewProgress(out io.Writer, description string, visible bool) *Progress {
	return &Progress{out: out, description: description, visible: visible}
}

func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.visible || total <= 1 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][%s][reset] ", p.description)),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *Progress) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("[cyan][%s][reset] %s", p.description, label))
	_ = p.bar.Add(1)
}

func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
