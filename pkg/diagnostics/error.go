// Package diagnostics implements the two-tier error model of spec §7: a
// recoverable, accumulating form used by the lexer and parser, and a
// fail-fast form used by the resolver and lowering passes. Both converge on
// the same Error shape at the package boundary, mirroring the teacher's
// ParseError/ResolutionError split (pkg/parser/errors.go) generalized into
// one type instead of several.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/pqlc/pkg/token"
)

// Kind classifies an Error per spec §7's error-kind table.
type Kind int

// Error kinds.
const (
	KindLex Kind = iota
	KindParse
	KindNotFound
	KindAmbiguous
	KindExpected
	KindSimple
	KindBug
)

// String renders the kind for log lines and test failures.
func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	case KindAmbiguous:
		return "ambiguous"
	case KindExpected:
		return "expected"
	case KindSimple:
		return "simple"
	case KindBug:
		return "bug"
	default:
		return "unknown"
	}
}

// Error is the uniform diagnostic shape produced by every compiler stage.
type Error struct {
	Kind    Kind
	Message string
	Span    *token.Span
	Hints   []string
	Code    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Span != nil {
		fmt.Fprintf(&b, " (at %s)", e.Span)
	}
	for _, h := range e.Hints {
		fmt.Fprintf(&b, "\n  hint: %s", h)
	}
	return b.String()
}

// WithHint appends an actionable hint and returns the receiver for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hints = append(e.Hints, hint)
	return e
}

// New constructs an Error of the given kind at an optional span.
func New(kind Kind, span *token.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// NotFound builds the spec §7 NotFound{namespace, name} error.
func NotFound(span *token.Span, namespace, name string) *Error {
	msg := name
	if namespace != "" {
		msg = namespace + "." + name
	}
	return New(KindNotFound, span, "name not found: %s", msg)
}

// Ambiguous builds the spec §7 Ambiguous error, listing candidates.
func Ambiguous(span *token.Span, name string, candidates []string) *Error {
	return New(KindAmbiguous, span, "ambiguous name %q, candidates: %s", name, strings.Join(candidates, ", "))
}

// Expected builds the spec §7 Expected{who, expected, found} error.
func Expected(span *token.Span, who, expected, found string) *Error {
	return New(KindExpected, span, "%s: expected %s, found %s", who, expected, found)
}

// Bug builds an internal-invariant-broken error; these should never surface
// to a well-formed program and exist to fail loudly instead of silently.
func Bug(code string, format string, args ...any) *Error {
	return &Error{Kind: KindBug, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Errors is an accumulating collection of diagnostics, used by stages that
// recover-and-continue (lexer, parser) per spec §7.
type Errors []*Error

// Error implements the error interface by joining all messages.
func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// Add appends a new diagnostic.
func (es *Errors) Add(e *Error) {
	*es = append(*es, e)
}

// HasErrors reports whether any diagnostics were collected.
func (es Errors) HasErrors() bool {
	return len(es) > 0
}

// Sort orders diagnostics by source position, per spec §5's ordering
// guarantee ("diagnostics are emitted in source-order of the offending
// span").
func (es Errors) Sort() {
	sort.SliceStable(es, func(i, j int) bool {
		si, sj := es[i].Span, es[j].Span
		if si == nil || sj == nil {
			return sj != nil
		}
		if si.SourceID != sj.SourceID {
			return si.SourceID < sj.SourceID
		}
		return si.Start.Offset < sj.Start.Offset
	})
}

// AsError returns nil if there are no diagnostics, or the collection
// itself (satisfying error) otherwise — the common "return accumulated
// errors, or nil" idiom used at every stage boundary.
func (es Errors) AsError() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
