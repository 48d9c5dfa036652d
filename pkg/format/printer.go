// Package format implements `pl_to_source` (spec §6.1): rendering a PR
// statement tree back into PQL source text. It is grounded on the
// teacher's pkg/format.Printer (a bytes.Buffer wrapped with
// indent/dedent/write/writeln helpers and an atLineStart flag to avoid
// spurious leading whitespace), stripped of its SQL-dialect awareness —
// PQL has exactly one surface syntax at this layer, so there is no
// dialect axis to plumb through the printer the way pkg/format's SQL
// renderer plumbs one through every clause.
package format

import (
	"bytes"
	"strings"
)

const indentSize = 4

// printer holds the mutable rendering state for one Unparse call.
type printer struct {
	output      bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{atLineStart: true}
}

// String returns the formatted output, trimmed of trailing blank lines.
func (p *printer) String() string {
	return strings.TrimRight(p.output.String(), "\n")
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *printer) space() {
	p.output.WriteByte(' ')
}

// formatList prints count items separated by sep, calling format(i) for
// each — the teacher's same list-rendering helper, used here for pipeline
// steps, tuple elements, array elements, function parameters, and case
// branches.
func (p *printer) formatList(count int, format func(i int), sep string) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
		}
	}
}
