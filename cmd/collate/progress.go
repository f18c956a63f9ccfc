package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

const descLength = 24

// progress is a single mpb bar on stderr. It does nothing when disabled or
// when stderr is not a terminal.
type progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	description atomic.Pointer[string]
}

// newProgress creates a bar counting up to total. With bytes set the
// counters are rendered as sizes.
func newProgress(total int64, bytes, enabled bool) *progress {
	p := &progress{}
	if !enabled || !isTerminal() {
		return p
	}

	fmt.Fprintln(os.Stderr)
	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	counters := decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight})
	if bytes {
		counters = decor.CountersKibiByte("% .1f / % .1f", decor.WC{C: decor.DindentRight})
	}
	p.bar = p.container.New(total,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				desc := p.description.Load()
				if desc == nil {
					return ""
				}
				if len(*desc) > descLength {
					return ".." + (*desc)[len(*desc)-descLength+2:]
				}
				return *desc
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			counters,
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return p
}

// update sets the bar position and the description shown beside it.
func (p *progress) update(current int64, description string) {
	if p.bar == nil {
		return
	}
	p.description.Store(&description)
	p.bar.SetCurrent(current)
}

// finish completes the bar at its current position and waits for it to render.
func (p *progress) finish() {
	if p.container == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
