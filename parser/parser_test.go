package parser_test

import (
	"strconv"
	"testing"

	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/lexer"
	"github.com/ply-toolkit/ply/parser"
)

// buildArithmeticGrammar builds the unambiguous
//
//	expr   -> expr '+' term | expr '-' term | term
//	term   -> term '*' factor | term '/' factor | factor
//	factor -> '(' expr ')' | NUMBER
//
// grammar, evaluating as it reduces. It needs no precedence declarations
// because left recursion already encodes left-associativity and the
// term/factor split already encodes * / binding tighter than + -.
func buildArithmeticGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()

	g := grammar.NewGrammar("arith")

	for _, term := range []string{"NUMBER", "+", "-", "*", "/", "(", ")"} {
		if _, err := g.AddTerminal(term); err != nil {
			t.Fatalf("AddTerminal(%q): %v", term, err)
		}
	}
	if err := g.SetStart("expr"); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	for _, nt := range []string{"term", "factor"} {
		if _, err := g.AddNonTerminal(nt); err != nil {
			t.Fatalf("AddNonTerminal(%q): %v", nt, err)
		}
	}

	num := func(args *grammar.Args) (interface{}, error) {
		return strconv.Atoi(args.Get(0).(*lexer.Token).Value)
	}

	rules := []grammar.Rule{
		{LHS: "expr", RHS: []string{"expr", "+", "term"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0).(int) + a.Get(2).(int), nil
		}},
		{LHS: "expr", RHS: []string{"expr", "-", "term"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0).(int) - a.Get(2).(int), nil
		}},
		{LHS: "expr", RHS: []string{"term"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0), nil
		}},
		{LHS: "term", RHS: []string{"term", "*", "factor"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0).(int) * a.Get(2).(int), nil
		}},
		{LHS: "term", RHS: []string{"term", "/", "factor"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0).(int) / a.Get(2).(int), nil
		}},
		{LHS: "term", RHS: []string{"factor"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(0), nil
		}},
		{LHS: "factor", RHS: []string{"(", "expr", ")"}, Action: func(a *grammar.Args) (interface{}, error) {
			return a.Get(1), nil
		}},
		{LHS: "factor", RHS: []string{"NUMBER"}, Action: num},
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
	if len(cg.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %+v", cg.Warnings())
	}
	return cg
}

func newArithmeticLexer(t *testing.T) *lexer.Lexer {
	t.Helper()
	l, err := lexer.NewBuilder().
		AddState(lexer.State{
			Name: "default",
			Rules: []lexer.Rule{
				{Type: "NUMBER", Pattern: `[0-9]+`},
				{Type: "WS", Pattern: `[ \t]+`, Ignore: true},
			},
		}).
		AddLiteral('+').
		AddLiteral('-').
		AddLiteral('*').
		AddLiteral('/').
		AddLiteral('(').
		AddLiteral(')').
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}
	return l
}

func TestRuntime_Parse(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"3 + 5 * (10 - 20)", 3 + 5*(10-20)},
		{"2 * 3 + 4 * 5", 2*3 + 4*5},
		{"100 / 5 / 5", 100 / 5 / 5},
		{"(1 + 2) * (3 + 4)", (1 + 2) * (3 + 4)},
	}

	cg := buildArithmeticGrammar(t)
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			l := newArithmeticLexer(t)
			l.SetInput(tt.src)
			rt := parser.New(cg, l)
			if err := rt.Parse(); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if errs := rt.SyntaxErrors(); len(errs) != 0 {
				t.Fatalf("unexpected syntax errors: %+v", errs)
			}
			got, ok := rt.Result().(int)
			if !ok {
				t.Fatalf("result is not an int: %#v", rt.Result())
			}
			if got != tt.want {
				t.Errorf("unexpected result: want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRuntime_SyntaxError(t *testing.T) {
	cg := buildArithmeticGrammar(t)
	l := newArithmeticLexer(t)
	l.SetInput("3 + + 4")
	rt := parser.New(cg, l)
	if err := rt.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	errs := rt.SyntaxErrors()
	if len(errs) == 0 {
		t.Fatal("expected at least one syntax error")
	}
	if errs[0].Token == nil || errs[0].Token.Value != "+" {
		t.Errorf("unexpected offending token: %+v", errs[0].Token)
	}
	if len(errs[0].ExpectedTerminals) == 0 {
		t.Error("expected a non-empty list of expected terminals")
	}
}
