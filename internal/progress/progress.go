// Package progress reports the stages of a render on a terminal with
// multi-bar progress output.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const (
	barWidth = 40
	indent   = "      "
)

// Reporter prints stage headers and warnings to an output and, when the
// output is a terminal, draws progress bars.
type Reporter struct {
	out  io.Writer
	bars bool
	warn *color.Color
}

// New creates a Reporter writing to out. A nil out discards everything.
// Bars are drawn only when out is a terminal.
func New(out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{
		out:  out,
		bars: isTerminal(out),
		warn: color.New(color.FgYellow, color.Bold),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Stage prints the stage title and returns a container for its bars.
func (r *Reporter) Stage(title string) *Stage {
	s := &Stage{r: r}
	if r.bars {
		s.p = mpb.New(mpb.WithOutput(r.out), mpb.WithWidth(barWidth+len(indent)))
		// Printed through the container so it lands above the bars.
		_, _ = fmt.Fprintln(s.p, title)
	} else {
		_, _ = fmt.Fprintln(r.out, title)
	}
	return s
}

// Stage groups the bars of one pipeline step.
type Stage struct {
	r *Reporter
	p *mpb.Progress

	mu   sync.Mutex
	bars []*Bar
}

// Warnf prints a highlighted warning line above the bars.
func (s *Stage) Warnf(format string, args ...any) {
	line := fmt.Sprintf("%s%s: %s", indent, s.r.warn.Sprint("Warning"), fmt.Sprintf(format, args...))
	if s.p != nil {
		_, _ = fmt.Fprintln(s.p, line)
		return
	}
	_, _ = fmt.Fprintln(s.r.out, line)
}

// Bar adds a progress bar labelled with msg. The total is set later with SetTotal.
func (s *Stage) Bar(msg string) *Bar {
	b := &Bar{}
	if s.p == nil {
		return b
	}

	style := mpb.BarStyle().Lbound("").Rbound("").Filler("#").Tip(">").Padding("-")
	b.b = s.p.New(0, style,
		mpb.PrependDecorators(decor.Name(indent)),
		mpb.AppendDecorators(decor.Name(" "+msg)),
		mpb.BarRemoveOnComplete(),
	)

	s.mu.Lock()
	s.bars = append(s.bars, b)
	s.mu.Unlock()
	return b
}

// Wait finishes the stage. Bars that were not completed are aborted.
func (s *Stage) Wait() {
	if s.p == nil {
		return
	}
	s.mu.Lock()
	for _, b := range s.bars {
		b.abort()
	}
	s.mu.Unlock()
	s.p.Wait()
}

// Bar is a single progress bar. The zero value is a valid no-op bar.
type Bar struct {
	b *mpb.Bar
}

// SetTotal sets the number of units the bar represents.
func (b *Bar) SetTotal(total int64) {
	if b.b != nil {
		b.b.SetTotal(total, false)
	}
}

// Increment advances the bar by one.
func (b *Bar) Increment() {
	if b.b != nil {
		b.b.Increment()
	}
}

// IncrBy advances the bar by n.
func (b *Bar) IncrBy(n int) {
	if b.b != nil {
		b.b.IncrBy(n)
	}
}

// Done marks the bar complete at its current position.
func (b *Bar) Done() {
	if b.b != nil && !b.b.Completed() {
		b.b.SetTotal(-1, true)
	}
}

func (b *Bar) abort() {
	if b.b != nil && !b.b.Completed() && !b.b.Aborted() {
		b.b.Abort(true)
	}
}
