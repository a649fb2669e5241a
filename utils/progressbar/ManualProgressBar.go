// Package progressbar implements functionality of printing a progress
// bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implements a progress bar that must be manually
// managed. That is, Display must be called whenever an updated
// progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	label           string
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar which is width
// characters wide, reaches 100% after max increments and prints to out
func NewManualProgressBar(out io.Writer, label string, width,
	max int) *ManualProgressBar {
	return &ManualProgressBar{
		out:         out,
		label:       label,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Fraction returns the fraction of progress made, in [0, 1]
func (p *ManualProgressBar) Fraction() float64 {
	if p.maxProgress <= 0 {
		return 1
	}
	return p.currentProgress / p.maxProgress
}

// String returns the current rendering of the progress bar
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	if p.label != "" {
		p.bar.WriteString(p.label)
		p.bar.WriteString(" ")
	}
	p.bar.WriteString("|")

	currentProg := p.Fraction() * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", p.Fraction()*100,
		time.Since(p.startTime).Truncate(time.Second))

	return p.bar.String()
}

// Display prints the progress bar over the previously displayed one
func (p *ManualProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Close moves the output to the line after the progress bar
func (p *ManualProgressBar) Close() {
	fmt.Fprintln(p.out)
}
