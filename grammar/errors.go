package grammar

import (
	"fmt"
	"strings"
)

// buildError is one problem found while compiling a Grammar: an undeclared
// symbol, a duplicate production, a %prec terminal with no declared
// precedence, and so on. It plays the same role the teacher's
// error.SpecError plays for the text-grammar front end, but without a
// source file/row to point at since grammars here are built through the Go
// API rather than parsed from a file.
type buildError struct {
	Detail string
}

func (e *buildError) Error() string {
	return e.Detail
}

func newBuildError(format string, args ...interface{}) *buildError {
	return &buildError{Detail: fmt.Sprintf(format, args...)}
}

// GrammarError aggregates every buildError found during Grammar.Compile,
// so callers see the whole set of problems instead of only the first one.
type GrammarError struct {
	Errors []error
}

func (e *GrammarError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v grammar errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "  - %v\n", err)
	}
	return b.String()
}

func (e *GrammarError) append(err error) {
	e.Errors = append(e.Errors, err)
}

func (e *GrammarError) hasErrors() bool {
	return len(e.Errors) > 0
}

// Warning is a non-fatal finding surfaced during Compile: a conflict
// resolved by defaulting to shift without declared precedence (spec.md
// §4.4's "still recorded as a warning"), or an unused terminal or
// non-terminal.
type Warning struct {
	Detail string
}

func (w *Warning) String() string {
	return w.Detail
}
