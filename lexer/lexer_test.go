package lexer

import (
	"testing"
)

func newCalcLexer(t *testing.T) *Lexer {
	t.Helper()
	l, err := NewBuilder().
		AddState(State{
			Name: "default",
			Rules: []Rule{
				{Type: "NUMBER", Pattern: `[0-9]+(\.[0-9]+)?`},
				{Type: "ID", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
				{Type: "WS", Pattern: `[ \t]+`, Ignore: true},
				{Type: "NEWLINE", Pattern: `\n`},
			},
		}).
		AddLiteral('+').
		AddLiteral('-').
		AddLiteral('*').
		AddLiteral('/').
		AddLiteral('(').
		AddLiteral(')').
		AddKeywordRemap("ID", "if", "IF").
		AddKeywordRemap("ID", "else", "ELSE").
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}
	return l
}

func collect(t *testing.T, l *Lexer, src string) []*Token {
	t.Helper()
	l.SetInput(src)
	var toks []*Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok == nil {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexer_Next(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		types   []string
		values  []string
	}{
		{
			caption: "arithmetic expression",
			src:     "3 + 5 * (10 - 20)",
			types:   []string{"NUMBER", "+", "NUMBER", "*", "(", "NUMBER", "-", "NUMBER", ")"},
			values:  []string{"3", "+", "5", "*", "(", "10", "-", "20", ")"},
		},
		{
			caption: "identifiers are not confused with keywords sharing a prefix",
			src:     "ifelse if else elsewhere",
			types:   []string{"ID", "IF", "ELSE", "ID"},
			values:  []string{"ifelse", "if", "else", "elsewhere"},
		},
		{
			caption: "whitespace is ignored, newline is a real token",
			src:     "a \n\tb",
			types:   []string{"ID", "NEWLINE", "ID"},
			values:  []string{"a", "\n", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l := newCalcLexer(t)
			toks := collect(t, l, tt.src)
			if len(toks) != len(tt.types) {
				t.Fatalf("unexpected token count: want %v tokens, got %v (%+v)", len(tt.types), len(toks), toks)
			}
			for i, tok := range toks {
				if tok.Type != tt.types[i] {
					t.Errorf("token %v: unexpected type: want %v, got %v", i, tt.types[i], tok.Type)
				}
				if tok.Value != tt.values[i] {
					t.Errorf("token %v: unexpected value: want %v, got %v", i, tt.values[i], tok.Value)
				}
			}
		})
	}
}

func TestLexer_LinenoIsUntrackedWithoutAnAction(t *testing.T) {
	l := newCalcLexer(t)
	toks := collect(t, l, "a\nb\nc")
	for _, tok := range toks {
		if tok.Lineno != 1 {
			t.Errorf("token %v (%v): unexpected lineno: want 1, got %v (core must not auto-track lines)", tok.Type, tok.Value, tok.Lineno)
		}
	}
}

func TestLexer_LinenoTracksNewlinesViaUserAction(t *testing.T) {
	l, err := NewBuilder().
		AddState(State{
			Name: "default",
			Rules: []Rule{
				{Type: "ID", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
				{Type: "WS", Pattern: `[ \t]+`, Ignore: true},
				{Type: "NEWLINE", Pattern: `\n`, Ignore: true, Action: func(l *Lexer, tok *Token) (*Token, bool, error) {
					l.SetLineno(l.Lineno() + 1)
					return tok, false, nil
				}},
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}

	toks := collect(t, l, "a\nb\nc")
	want := []int{1, 2, 3}
	if len(toks) != len(want) {
		t.Fatalf("unexpected token count: want %v, got %v", len(want), len(toks))
	}
	for i, tok := range toks {
		if tok.Lineno != want[i] {
			t.Errorf("token %v (%v): unexpected lineno: want %v, got %v", i, tok.Value, want[i], tok.Lineno)
		}
	}
}

func TestLexer_IllegalCharacter(t *testing.T) {
	l := newCalcLexer(t)
	l.SetInput("a $ b")
	if _, err := l.Next(); err != nil {
		t.Fatalf("unexpected error on first token: %v", err)
	}
	if _, err := l.Next(); err == nil {
		t.Fatal("expected an error for an unmatched character, got nil")
	}
}

func TestLexer_ErrorHookCanSkipAndRecover(t *testing.T) {
	l := newCalcLexer(t)
	var skipped []byte
	l.Error = func(lx *Lexer, remaining string) (*Token, error) {
		skipped = append(skipped, remaining[0])
		lx.advance(1)
		return nil, nil
	}
	toks := collect(t, l, "a $ b")
	if len(toks) != 2 {
		t.Fatalf("unexpected token count: want 2, got %v (%+v)", len(toks), toks)
	}
	if string(skipped) != "$" {
		t.Errorf("unexpected skipped bytes: want %q, got %q", "$", string(skipped))
	}
}

func TestLexer_ModeStack(t *testing.T) {
	l, err := NewBuilder().
		AddState(State{
			Name: "default",
			Rules: []Rule{
				{Type: "STRING_START", Pattern: `"`},
				{Type: "ID", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
				{Type: "WS", Pattern: `[ \t]+`, Ignore: true},
			},
		}).
		AddState(State{
			Name: "string",
			Rules: []Rule{
				{Type: "STRING_END", Pattern: `"`},
				{Type: "STRING_CHARS", Pattern: `[^"]+`},
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("failed to build lexer: %v", err)
	}

	l.SetInput(`a "bcd" e`)

	tok, err := l.Next()
	assertToken(t, tok, err, "ID", "a")

	tok, err = l.Next()
	assertToken(t, tok, err, "STRING_START", `"`)
	l.PushState("string")

	tok, err = l.Next()
	assertToken(t, tok, err, "STRING_CHARS", "bcd")

	tok, err = l.Next()
	assertToken(t, tok, err, "STRING_END", `"`)
	if err := l.PopState(); err != nil {
		t.Fatalf("unexpected error popping state: %v", err)
	}

	tok, err = l.Next()
	assertToken(t, tok, err, "ID", "e")
}

func assertToken(t *testing.T, tok *Token, err error, wantType, wantValue string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok == nil {
		t.Fatal("unexpected EOF")
	}
	if tok.Type != wantType {
		t.Errorf("unexpected type: want %v, got %v", wantType, tok.Type)
	}
	if tok.Value != wantValue {
		t.Errorf("unexpected value: want %v, got %v", wantValue, tok.Value)
	}
}

func TestLexer_KeywordRemapDoesNotAffectOtherRules(t *testing.T) {
	l := newCalcLexer(t)
	toks := collect(t, l, "if (else)")
	want := []struct{ typ, val string }{
		{"IF", "if"},
		{"(", "("},
		{"ELSE", "else"},
		{")", ")"},
	}
	if len(toks) != len(want) {
		t.Fatalf("unexpected token count: want %v, got %v", len(want), len(toks))
	}
	for i, tok := range toks {
		if tok.Type != want[i].typ || tok.Value != want[i].val {
			t.Errorf("token %v: want (%v,%v), got (%v,%v)", i, want[i].typ, want[i].val, tok.Type, tok.Value)
		}
	}
}
