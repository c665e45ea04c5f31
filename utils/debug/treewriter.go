// Package debug renders human readable dumps of import runs for the debug
// report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label and quoted value, so that whitespace and line
// breaks stay visible. Empty values are left out.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	if value == "" {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(strconv.Quote(value))
	tw.w.WriteByte('\n')
}

// List writes label followed by numbered items one level deeper.
func (tw *TreeWriter) List(depth int, label string, items []string) {
	tw.Line(depth, "%s (%d)", label, len(items))
	for i, it := range items {
		tw.indent(depth + 1)
		fmt.Fprintf(tw.w, "%d. %s\n", i+1, it)
	}
}
