package parser_test

import (
	"testing"

	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/lexer"
	"github.com/ply-toolkit/ply/parser"
)

// buildStatementGrammar builds a PRINT-statement grammar with a
// yacc-style `error ';'` recovery production (spec.md §4.5's error
// recovery scenario): a malformed statement is skipped up to its
// terminating semicolon instead of aborting the whole parse.
func buildStatementGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()

	g := grammar.NewGrammar("stmts")
	for _, term := range []string{"PRINT", "NUMBER", ";"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("program"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	for _, nt := range []string{"stmts", "stmt"} {
		if _, err := g.AddNonTerminal(nt); err != nil {
			t.Fatalf("AddNonTerminal(%q): %v", nt, err)
		}
	}

	rules := []grammar.Rule{
		{LHS: "program", RHS: []string{"stmts"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0), nil
		}},
		{LHS: "stmts", RHS: []string{"stmts", "stmt"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0).(int) + a.Get(1).(int), nil
		}},
		{LHS: "stmts", RHS: nil, Action: func(a *grammar.Args) (interface{}, error) {
			return 0, nil
		}},
		{LHS: "stmt", RHS: []string{"PRINT", "NUMBER", ";"}, Action: func(a *grammar.Args) (interface{}, error) {
			return 1, nil
		}},
		{LHS: "stmt", RHS: []string{"error", ";"}, Recover: true, Action: func(a *grammar.Args) (interface{}, error) {
			return 0, nil
		}},
	}
	for _, r := range rules {
		if err := g.AddProduction(r); err != nil {
			t.Fatalf("AddProduction(%v): %v", r.LHS, err)
		}
	}

	cg, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return cg
}

func newStatementLexer(t *testing.T) *lexer.Lexer {
	t.Helper()
	l, err := lexer.NewBuilder().
		AddState(lexer.State{
			Name: "default",
			Rules: []lexer.Rule{
				{Type: "PRINT", Pattern: `print`},
				{Type: "NUMBER", Pattern: `[0-9]+`},
				{Type: "WS", Pattern: `[ \t\n]+`, Ignore: true},
			},
		}).
		AddLiteral(';').
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}
	return l
}

// buildSingleTokenGrammar accepts exactly one "A" token, for exercising
// WithErrorHook's replacement-token path in isolation from the
// error-production recovery machinery.
func buildSingleTokenGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()

	g := grammar.NewGrammar("single")
	for _, term := range []string{"A", "B"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("S"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	if err := g.AddProduction(grammar.Rule{LHS: "S", RHS: []string{"A"}, Action: func(a *grammar.Args) (interface{}, error) {
		return a.Get(0).(*lexer.Token).Value, nil
	}}); err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	cg, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return cg
}

func newSingleTokenLexer(t *testing.T) *lexer.Lexer {
	t.Helper()
	l, err := lexer.NewBuilder().
		AddState(lexer.State{
			Name: "default",
			Rules: []lexer.Rule{
				{Type: "WS", Pattern: `[ \t\n]+`, Ignore: true},
			},
		}).
		AddLiteral('A').
		AddLiteral('B').
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}
	return l
}

func TestRuntime_ErrorHookInvokedOnce(t *testing.T) {
	cg := buildStatementGrammar(t)
	l := newStatementLexer(t)
	l.SetInput("print 5; 6; print 7;")

	var calls int
	rt := parser.New(cg, l, parser.WithErrorHook(func(tok *lexer.Token) *lexer.Token {
		calls++
		return nil
	}))
	if err := rt.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if calls != 1 {
		t.Errorf("unexpected error hook invocation count: want 1, got %v", calls)
	}
	if len(rt.SyntaxErrors()) != 1 {
		t.Fatalf("unexpected syntax error count: want 1, got %v", len(rt.SyntaxErrors()))
	}
}

func TestRuntime_ErrorHookReplacementTokenResumesParsing(t *testing.T) {
	cg := buildSingleTokenGrammar(t)
	l := newSingleTokenLexer(t)
	l.SetInput("B")

	rt := parser.New(cg, l, parser.WithErrorHook(func(tok *lexer.Token) *lexer.Token {
		return &lexer.Token{Type: "A", Value: "A"}
	}))
	if err := rt.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(rt.SyntaxErrors()) != 1 {
		t.Fatalf("unexpected syntax error count: want 1, got %v", len(rt.SyntaxErrors()))
	}
	if got, want := rt.Result().(string), "A"; got != want {
		t.Errorf("Result() = %q, want %q", got, want)
	}
}

func TestRuntime_ErrorRecovery(t *testing.T) {
	cg := buildStatementGrammar(t)
	l := newStatementLexer(t)
	l.SetInput("print 5; 6; print 7;")

	rt := parser.New(cg, l)
	if err := rt.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	errs := rt.SyntaxErrors()
	if len(errs) != 1 {
		t.Fatalf("unexpected syntax error count: want 1, got %v (%+v)", len(errs), errs)
	}

	got, ok := rt.Result().(int)
	if !ok {
		t.Fatalf("result is not an int: %#v", rt.Result())
	}
	// Two well-formed PRINT statements; the malformed "6;" contributes 0.
	if got != 2 {
		t.Errorf("unexpected statement count: want 2, got %v", got)
	}
}
