package grammar_test

import (
	"testing"

	"github.com/ply-toolkit/ply/grammar"
)

func buildExprGrammar(t *testing.T, opts ...grammar.CompileOption) *grammar.CompiledGrammar {
	t.Helper()

	g := grammar.NewGrammar("expr")
	for _, term := range []string{"NUMBER", "+", "-", "*", "/", "(", ")"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("expr"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}

	// Ambiguous grammar deliberately, so precedence declarations must
	// resolve the shift/reduce conflicts between the four arithmetic
	// operators (spec.md §4.4's precedence-climbing scenario).
	if err := g.DeclarePrecedence(grammar.LeftAssoc, "+", "-"); err != nil {
		t.Fatalf("DeclarePrecedence(+,-): %v", err)
	}
	if err := g.DeclarePrecedence(grammar.LeftAssoc, "*", "/"); err != nil {
		t.Fatalf("DeclarePrecedence(*,/): %v", err)
	}

	noop := func(a *grammar.Args) (interface{}, error) { return nil, nil }

	rules := []grammar.Rule{
		{LHS: "expr", RHS: []string{"expr", "+", "expr"}, Action: noop},
		{LHS: "expr", RHS: []string{"expr", "-", "expr"}, Action: noop},
		{LHS: "expr", RHS: []string{"expr", "*", "expr"}, Action: noop},
		{LHS: "expr", RHS: []string{"expr", "/", "expr"}, Action: noop},
		{LHS: "expr", RHS: []string{"(", "expr", ")"}, Action: noop},
		{LHS: "expr", RHS: []string{"NUMBER"}, Action: noop},
	}
	for _, r := range rules {
		if err := g.AddProduction(r); err != nil {
			t.Fatalf("AddProduction(%v): %v", r.LHS, err)
		}
	}

	cg, err := g.Compile(opts...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return cg
}

func TestGrammar_CompileResolvesAmbiguityWithoutWarnings(t *testing.T) {
	cg := buildExprGrammar(t)
	if len(cg.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %+v", cg.Warnings())
	}
}

func TestGrammar_UndeclaredSymbolIsAnError(t *testing.T) {
	g := grammar.NewGrammar("bad")
	if _, err := g.AddTerminal("A"); err != nil {
		t.Fatalf("AddTerminal: %v", err)
	}
	if err := g.SetStart("S"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	err := g.AddProduction(grammar.Rule{
		LHS: "S",
		RHS: []string{"A", "B"}, // B was never declared
	})
	if err == nil {
		t.Fatal("expected an error for an undeclared RHS symbol")
	}
}

func TestGrammar_CompileWithoutStartSymbolFails(t *testing.T) {
	g := grammar.NewGrammar("bad")
	if _, err := g.AddTerminal("A"); err != nil {
		t.Fatalf("AddTerminal: %v", err)
	}
	if err := g.AddProduction(grammar.Rule{
		LHS: "S",
		RHS: []string{"A"},
		Action: func(a *grammar.Args) (interface{}, error) {
			return nil, nil
		},
	}); err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	_, err := g.Compile()
	if err == nil {
		t.Fatal("expected Compile to fail without a start symbol")
	}
}

func TestGrammar_UndefinedPrecedenceWarnsAndDefaultsToShift(t *testing.T) {
	g := grammar.NewGrammar("dangling")
	for _, term := range []string{"IF", "THEN", "ELSE", "X"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("stmt"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}

	noop := func(a *grammar.Args) (interface{}, error) { return nil, nil }
	rules := []grammar.Rule{
		{LHS: "stmt", RHS: []string{"IF", "X", "THEN", "stmt", "ELSE", "stmt"}, Action: noop},
		{LHS: "stmt", RHS: []string{"IF", "X", "THEN", "stmt"}, Action: noop},
		{LHS: "stmt", RHS: []string{"X"}, Action: noop},
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
	if len(cg.Warnings()) == 0 {
		t.Fatal("expected the classic dangling-else conflict to produce a warning")
	}
}

func TestGrammar_NonProductiveNonTerminalIsRejected(t *testing.T) {
	g := grammar.NewGrammar("cyclic")
	noop := func(a *grammar.Args) (interface{}, error) { return nil, nil }
	if err := g.AddProduction(grammar.Rule{LHS: "S", RHS: []string{"S"}, Action: noop}); err != nil {
		t.Fatalf("AddProduction: %v", err)
	}
	if err := g.SetStart("S"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}

	if err := g.Validate(); err == nil {
		t.Fatal("expected Validate to reject a grammar consisting solely of S -> S")
	}
	if _, err := g.Compile(); err == nil {
		t.Fatal("expected Compile to reject a grammar consisting solely of S -> S")
	}
}

func TestGrammar_DuplicateProductionIsRejected(t *testing.T) {
	g := grammar.NewGrammar("dup")
	if _, err := g.AddTerminal("A"); err != nil {
		t.Fatalf("AddTerminal: %v", err)
	}
	if err := g.SetStart("S"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	noop := func(a *grammar.Args) (interface{}, error) { return nil, nil }
	if err := g.AddProduction(grammar.Rule{LHS: "S", RHS: []string{"A"}, Action: noop}); err != nil {
		t.Fatalf("AddProduction: %v", err)
	}
	err := g.AddProduction(grammar.Rule{LHS: "S", RHS: []string{"A"}, Action: noop})
	if err == nil {
		t.Fatal("expected a duplicate production to be rejected")
	}
}

func TestGrammar_DisableDefaultedStates(t *testing.T) {
	withDefaults := buildExprGrammar(t)
	withoutDefaults := buildExprGrammar(t, grammar.DisableDefaultedStates())

	// Both compiles must still start from the same initial state;
	// DisableDefaultedStates changes how reduce cells are stored, not the
	// LR(0) automaton the table is built from.
	if withDefaults.InitialState() != withoutDefaults.InitialState() {
		t.Errorf("initial state differs: %v vs %v", withDefaults.InitialState(), withoutDefaults.InitialState())
	}
}

func TestGrammar_PrecTerminalMustHaveDeclaredPrecedence(t *testing.T) {
	g := grammar.NewGrammar("prec")
	for _, term := range []string{"NUMBER", "-", "UMINUS"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("expr"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	noop := func(a *grammar.Args) (interface{}, error) { return nil, nil }
	err := g.AddProduction(grammar.Rule{
		LHS:    "expr",
		RHS:    []string{"-", "expr"},
		Prec:   "UMINUS", // never declared via DeclarePrecedence
		Action: noop,
	})
	if err == nil {
		t.Fatal("expected an error for a prec-declared terminal with no declared precedence")
	}
}
