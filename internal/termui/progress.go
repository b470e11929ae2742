package termui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Bar is a single-line progress bar redrawn with a carriage return.
// Println clears the bar, prints the message, and redraws it below.
type Bar struct {
	w     io.Writer
	label string
	model progress.Model
	total int
	done  int
	width int
	drawn bool
}

// NewBar returns a bar that writes to w, prefixed with label.
func NewBar(w io.Writer, label string) *Bar {
	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	return &Bar{w: w, label: label, model: p}
}

// Start resets the bar for total items and draws it.
func (b *Bar) Start(total int) {
	b.total = total
	b.done = 0
	b.draw()
}

// Increment advances the bar by one item.
func (b *Bar) Increment() {
	if b.done < b.total {
		b.done++
	}
	b.draw()
}

// Println prints a line above the bar.
func (b *Bar) Println(a ...any) {
	b.clear()
	fmt.Fprintln(b.w, a...)
	b.draw()
}

// Done finishes the bar and moves to a new line.
func (b *Bar) Done() {
	if b.drawn {
		fmt.Fprintln(b.w)
		b.drawn = false
	}
}

// Percent returns the completed fraction in [0, 1].
func (b *Bar) Percent() float64 {
	if b.total <= 0 {
		return 1
	}
	return float64(b.done) / float64(b.total)
}

func (b *Bar) line() string {
	return fmt.Sprintf("%s %s %d/%d", b.label, b.model.ViewAs(b.Percent()), b.done, b.total)
}

func (b *Bar) draw() {
	l := b.line()
	b.width = len(l)
	fmt.Fprint(b.w, "\r"+l)
	b.drawn = true
}

func (b *Bar) clear() {
	if !b.drawn {
		return
	}
	fmt.Fprint(b.w, "\r"+strings.Repeat(" ", b.width)+"\r")
	b.drawn = false
}
