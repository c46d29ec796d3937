package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI colour sequences
const (
	colorRed    = "\033[31m%s\033[0m"
	colorGreen  = "\033[32m%s\033[0m"
	colorCyan   = "\033[36m%s\033[0m"
)

// Printer writes user-facing status lines outside the structured log
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer writing to w. Colour is enabled only when w is
// a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, color: IsTerminal(w)}
}

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) colorize(format, text string) string {
	if !p.color {
		return text
	}
	return fmt.Sprintf(format, text)
}

// PrintFatal prints an error that ends the run as "Fatal: <message>"
func (p *Printer) PrintFatal(err error) {
	fmt.Fprintln(p.out, p.colorize(colorRed, "Fatal: "+err.Error()))
}

// PrintSuccess prints a message in green
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.out, p.colorize(colorGreen, msg))
}

// PrintInfo prints a label and value pair
func (p *Printer) PrintInfo(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.colorize(colorCyan, label), value)
}
