package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Printer struct {
	out   io.Writer
	bold  *color.Color
	faint *color.Color
}

// NewPrinter writes to out, using colors only when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	if !isTerminal(out) {
		bold.DisableColor()
		faint.DisableColor()
	}
	return &Printer{
		out:   out,
		bold:  bold,
		faint: faint,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Print(a ...any) {
	fmt.Fprint(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// PrintJSON writes v as indented JSON followed by a newline.
func (p *Printer) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	p.Println(string(data))
	return nil
}

// Field is one labelled line of PrintFields output.
type Field struct {
	Label string
	Value string
}

// PrintFields writes one "label: value" line per field with the values
// aligned.
func (p *Printer) PrintFields(fields ...Field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		label := p.bold.Sprint(f.Label + ":")
		p.Printf("%s%s %s\n", label, strings.Repeat(" ", width-len(f.Label)), f.Value)
	}
}

// PrintEvent echoes a tracked event.
func (p *Printer) PrintEvent(name string, value any) {
	p.Printf("%s %s\n", p.faint.Sprint("→"), formatEvent(name, value))
}

func formatEvent(name string, value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%s = %v", name, value)
	}
	return fmt.Sprintf("%s = %s", name, data)
}
