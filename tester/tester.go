// Package tester runs declarative test cases against a compiled grammar,
// the way vartan-test drives its own grammar spec files against
// driver.Parser, adapted here to the programmatic grammar.CompiledGrammar
// and parser.Runtime this project builds instead of a DSL text format.
package tester

import (
	"fmt"
	"reflect"

	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/lexer"
	"github.com/ply-toolkit/ply/parser"
)

// Case is one declarative test: feed Source through the lexer/parser pair
// and check the outcome. When WantSyntaxErr is false the parse must
// report no syntax error and its result must equal Want, so a case that
// sets neither passes only for a clean parse whose result is nil.
type Case struct {
	Name   string
	Source string

	// Want is compared against parser.Runtime.Result() with
	// reflect.DeepEqual when WantSyntaxErr is false.
	Want interface{}

	// WantSyntaxErr requires at least one entry in
	// parser.Runtime.SyntaxErrors() and skips the Want comparison, for
	// grammars whose "error ..." recovery productions are themselves
	// under test (spec.md §4.5).
	WantSyntaxErr bool
}

// Result is the outcome of running a single Case.
type Result struct {
	Name string
	Err  error
}

func (r *Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("FAIL %v: %v", r.Name, r.Err)
	}
	return fmt.Sprintf("PASS %v", r.Name)
}

// Suite binds a compiled grammar and a lexer factory to a set of cases.
// NewLexer is called once per case so mode-stack state never leaks
// between cases sharing the same Suite.
type Suite struct {
	Grammar  *grammar.CompiledGrammar
	NewLexer func() (*lexer.Lexer, error)
	Cases    []Case
}

// Run executes every case in s.Cases and returns one Result per case, in
// order.
func (s *Suite) Run() []*Result {
	rs := make([]*Result, len(s.Cases))
	for i, c := range s.Cases {
		rs[i] = s.runCase(c)
	}
	return rs
}

func (s *Suite) runCase(c Case) *Result {
	lx, err := s.NewLexer()
	if err != nil {
		return &Result{Name: c.Name, Err: fmt.Errorf("failed to build lexer: %w", err)}
	}
	lx.SetInput(c.Source)

	rt := parser.New(s.Grammar, lx)
	if err := rt.Parse(); err != nil {
		return &Result{Name: c.Name, Err: err}
	}

	if c.WantSyntaxErr {
		if len(rt.SyntaxErrors()) == 0 {
			return &Result{Name: c.Name, Err: fmt.Errorf("expected a syntax error, but the parse succeeded cleanly")}
		}
		return &Result{Name: c.Name}
	}

	if errs := rt.SyntaxErrors(); len(errs) > 0 {
		return &Result{Name: c.Name, Err: fmt.Errorf("unexpected syntax error: %v", errs[0])}
	}

	if !reflect.DeepEqual(rt.Result(), c.Want) {
		return &Result{Name: c.Name, Err: fmt.Errorf("result mismatch: want %#v, got %#v", c.Want, rt.Result())}
	}
	return &Result{Name: c.Name}
}
