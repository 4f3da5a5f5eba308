package tester

import (
	"testing"

	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/lexer"
)

func buildSuiteGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()

	g := grammar.NewGrammar("s")
	for _, term := range []string{"FOO", "BAR", "BAZ"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("s"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}

	rules := []grammar.Rule{
		{LHS: "s", RHS: []string{"FOO", "BAR", "BAZ"}, Action: func(a *grammar.Args) (interface{}, error) {
			return "matched", nil
		}},
		{LHS: "s", RHS: []string{"error", "BAZ"}, Recover: true, Action: func(a *grammar.Args) (interface{}, error) {
			return "recovered", nil
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

func newSuiteLexer() (*lexer.Lexer, error) {
	return lexer.NewBuilder().
		AddState(lexer.State{
			Name: "default",
			Rules: []lexer.Rule{
				{Type: "FOO", Pattern: `foo`},
				{Type: "BAR", Pattern: `bar`},
				{Type: "BAZ", Pattern: `baz`},
				{Type: "WS", Pattern: `[ \t\n]+`, Ignore: true},
			},
		}).
		Build()
}

func TestSuite_Run(t *testing.T) {
	cg := buildSuiteGrammar(t)

	suite := &Suite{
		Grammar:  cg,
		NewLexer: newSuiteLexer,
		Cases: []Case{
			{Name: "well-formed", Source: "foo bar baz", Want: "matched"},
			{Name: "recovered", Source: "bar baz", WantSyntaxErr: true},
			{Name: "mismatch is a failure", Source: "foo bar baz", Want: "wrong"},
		},
	}

	rs := suite.Run()
	if len(rs) != 3 {
		t.Fatalf("unexpected result count: %v", len(rs))
	}
	if rs[0].Err != nil {
		t.Errorf("case %q: unexpected error: %v", rs[0].Name, rs[0].Err)
	}
	if rs[1].Err != nil {
		t.Errorf("case %q: unexpected error: %v", rs[1].Name, rs[1].Err)
	}
	if rs[2].Err == nil {
		t.Errorf("case %q: expected a mismatch error", rs[2].Name)
	}
}
