// Package report renders stage summaries: colored console sections plus the
// text/CSV statistics files produced by the stats stage.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const ruleWidth = 80

// Section prints a bold section header framed by horizontal rules.
func Section(w io.Writer, title string) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	bold.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

// KV prints one "label: value" summary line.
func KV(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s: %v\n", label, value)
}

// Countf prints a labeled count with a percentage of total.
func Countf(w io.Writer, label string, n, total int) {
	pct := 0.0
	if total > 0 {
		pct = float64(n) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s: %d (%.2f%%)\n", label, n, pct)
}
