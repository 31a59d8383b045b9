package ui

import (
	"fmt"
	"io"
)

// Progress prints a "[n/total] label" counter as a batch of checks runs.
// pmmenu is single-operator and synchronous, so no locking is needed.
type Progress struct {
	out   io.Writer
	total int
	done  int
}

// NewProgress creates a progress counter for total steps.
func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

// Step marks one step complete and prints the counter with its label.
func (p *Progress) Step(label string) {
	p.done++
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s\n", p.done, p.total, label)
}
