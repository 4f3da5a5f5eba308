// Package lexer implements the regex-driven tokenizer runtime: a set of
// named rules combined into one master alternation per lex state, the way
// original_source/sly/lex.py's LexerMeta._build joins each rule into a
// single `(?P<name>pattern)|...` regex and matches it repeatedly against
// the input starting at the current index. The mode-stack API (Begin,
// PushState, PopState) follows the shape of the teacher's
// driver/lexer/lexer.go, generalized from a compiled DFA table to a
// regexp.Regexp per state.
package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

// Token is one lexical unit. Field names follow spec.md §3's vocabulary
// (Type/Value/lineno/index/end) rather than the teacher's
// ModeID/KindID/Lexeme/Row/Col, since positions here are byte offsets
// into the source rather than a row/column pair.
type Token struct {
	Type   string
	Value  string
	Lineno int
	Index  int
	End    int
}

func (t *Token) String() string {
	return fmt.Sprintf("Token(%s, %q, %d, %d)", t.Type, t.Value, t.Lineno, t.Index)
}

// Rule is one named token definition in a lex state.
type Rule struct {
	// Type is the token type this rule produces. Two rules in the same
	// state must not share a Type; use one rule with an alternation
	// inside its Pattern instead.
	Type string

	// Pattern is the rule's regular expression, RE2 syntax (Go's
	// regexp). Rules within a state are tried in the order they were
	// added, exactly like SLY joining `parts` with `|` in declaration
	// order — earlier rules win ties, so put longer/more specific
	// patterns first (spec.md §3's EQ-before-ASSIGN longest-match
	// ordering guidance).
	Pattern string

	// Ignore marks the rule's matches as skipped rather than yielded to
	// the parser (SLY's `ignore_` prefix convention).
	Ignore bool

	// Action, when set, post-processes a token before it's yielded (or
	// suppressed by returning ok=false), the way SLY dispatches to a
	// same-named token function that takes the lexer itself as its first
	// argument (original_source/sly/lex.py's tokenize sets self.lineno
	// before the call and reads it back after). The lexer is passed so an
	// action can call SetLineno/Lineno to track line numbers itself; the
	// core never scans matched text for newlines (spec.md §4.6).
	Action func(l *Lexer, tok *Token) (*Token, bool, error)
}

// State is one lexer mode: a named, ordered set of rules compiled into a
// single master regular expression.
type State struct {
	Name  string
	Rules []Rule
}

type compiledState struct {
	re     *regexp.Regexp
	names  []string // capture group index -> group name (groupSafeName of the rule Type), as re.SubexpNames() returns
	rules  map[string]Rule
	ignore map[string]bool
}

// Lexer tokenizes an input string against a set of named states, with a
// mode stack (Begin/PushState/PopState) selecting which state's master
// regex is active, single-character literals for tokens too small to
// deserve a named rule, and a keyword remap table for reclassifying an
// identifier-shaped match (spec.md §3's ID/IF/ELSE keyword scenario).
type Lexer struct {
	states  map[string]*compiledState
	literals map[byte]string
	remap    map[string]map[string]string // baseType -> exact text -> remapped type

	src    string
	index  int
	lineno int

	modeStack []string

	// Error is called when no rule, and no literal, matches at the
	// current index, with the unmatched remainder of the input. A non-nil
	// error is returned from Next; a non-nil token is returned as the next
	// token; nil, nil makes Next scan again from the current index. Next
	// never skips the unmatched input itself, so the hook has to move the
	// index forward (Lexer exports no method for that; only code in this
	// package can). Without a hook, Next returns an error.
	Error func(l *Lexer, remaining string) (*Token, error)

	// EOF is consulted when the input is exhausted; returning ok=true
	// continues tokenization over the returned text, with the index
	// restarting at 0, matching SLY's `eof()` hook
	// (original_source/sly/lex.py).
	EOF func(l *Lexer) (more string, ok bool)
}

// Builder assembles States, literals and keyword remaps before compiling
// them into a Lexer.
type Builder struct {
	states       []State
	literals     map[byte]string
	remap        map[string]map[string]string
	initialState string
}

func NewBuilder() *Builder {
	return &Builder{
		literals: map[byte]string{},
		remap:    map[string]map[string]string{},
	}
}

// AddState registers a lex state; the first one added is the initial mode.
func (b *Builder) AddState(s State) *Builder {
	if b.initialState == "" {
		b.initialState = s.Name
	}
	b.states = append(b.states, s)
	return b
}

// AddLiteral registers a single-byte token that doesn't need a regex rule
// (yacc/SLY's `literals` set): when no rule matches at the current
// position, a byte present here is matched directly and its Type is
// itself, e.g. '+' matches type "+".
func (b *Builder) AddLiteral(ch byte) *Builder {
	b.literals[ch] = string(ch)
	return b
}

// AddKeywordRemap declares that, whenever baseType matches exactly text,
// the token's Type should be replaced by remappedType — the standard way
// to fold reserved words out of a generic identifier rule instead of
// writing one regex per keyword (spec.md §3).
func (b *Builder) AddKeywordRemap(baseType, text, remappedType string) *Builder {
	if b.remap[baseType] == nil {
		b.remap[baseType] = map[string]string{}
	}
	b.remap[baseType][text] = remappedType
	return b
}

// Build compiles every state's rules into one master regex each.
func (b *Builder) Build() (*Lexer, error) {
	if len(b.states) == 0 {
		return nil, fmt.Errorf("lexer needs at least one state")
	}

	compiled := map[string]*compiledState{}
	for _, s := range b.states {
		cs, err := compileState(s)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		compiled[s.Name] = cs
	}

	return &Lexer{
		states:    compiled,
		literals:  b.literals,
		remap:     b.remap,
		modeStack: []string{b.initialState},
	}, nil
}

func compileState(s State) (*compiledState, error) {
	if len(s.Rules) == 0 {
		return nil, fmt.Errorf("state has no rules")
	}

	var parts []string
	names := map[string]bool{}
	rules := map[string]Rule{}
	ignore := map[string]bool{}
	for _, r := range s.Rules {
		if names[r.Type] {
			return nil, fmt.Errorf("token type %q redefined", r.Type)
		}
		names[r.Type] = true
		rules[r.Type] = r
		if r.Ignore {
			ignore[r.Type] = true
		}
		parts = append(parts, fmt.Sprintf("(?P<%s>%s)", groupSafeName(r.Type), r.Pattern))
	}

	re, err := regexp.Compile("^(?:" + strings.Join(parts, "|") + ")")
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("master pattern matches the empty string")
	}

	return &compiledState{
		re:     re,
		names:  re.SubexpNames(),
		rules:  rules,
		ignore: ignore,
	}, nil
}

// groupSafeName maps a token Type to a Go regexp named-capture-group
// identifier; regexp group names must be valid Go identifiers, so any
// type containing characters outside [A-Za-z0-9_] is hashed into one.
func groupSafeName(t string) string {
	safe := true
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			safe = false
			break
		}
	}
	if safe && t != "" {
		return "T_" + t
	}
	sum := 0
	for i := 0; i < len(t); i++ {
		sum = sum*31 + int(t[i])
	}
	return fmt.Sprintf("G_%x", uint32(sum))
}

// SetInput resets the lexer over a new source, starting at line 1.
func (l *Lexer) SetInput(src string) {
	l.src = src
	l.index = 0
	l.lineno = 1
}

// Mode returns the name of the currently active lex state.
func (l *Lexer) Mode() string {
	return l.modeStack[len(l.modeStack)-1]
}

// Begin replaces the current lex state without touching the stack
// (flex's BEGIN).
func (l *Lexer) Begin(state string) {
	l.modeStack[len(l.modeStack)-1] = state
}

// PushState pushes a new active lex state, to be restored by PopState.
func (l *Lexer) PushState(state string) {
	l.modeStack = append(l.modeStack, state)
}

// PopState restores the lex state active before the last PushState.
func (l *Lexer) PopState() error {
	if len(l.modeStack) <= 1 {
		return fmt.Errorf("cannot pop the initial lex state")
	}
	l.modeStack = l.modeStack[:len(l.modeStack)-1]
	return nil
}

// Next returns the next token, or nil at end of input. It skips Ignore
// rules internally so callers never see them, mirroring SLY's
// `_ignored_tokens` handling in Lexer.tokenize.
func (l *Lexer) Next() (*Token, error) {
	for {
		if l.index >= len(l.src) {
			if l.EOF != nil {
				if more, ok := l.EOF(l); ok {
					l.src = l.src[l.index:] + more
					l.index = 0
					continue
				}
			}
			return nil, nil
		}

		cs, ok := l.states[l.Mode()]
		if !ok {
			return nil, fmt.Errorf("undefined lex state %q", l.Mode())
		}

		rest := l.src[l.index:]
		loc := cs.re.FindStringSubmatchIndex(rest)
		if loc == nil {
			ch := l.src[l.index]
			if typ, ok := l.literals[ch]; ok {
				tok := &Token{Type: typ, Value: typ, Lineno: l.lineno, Index: l.index, End: l.index + 1}
				l.advance(1)
				return tok, nil
			}

			if l.Error != nil {
				tok, err := l.Error(l, rest)
				if err != nil {
					return nil, err
				}
				if tok != nil {
					return tok, nil
				}
				continue
			}
			return nil, fmt.Errorf("illegal character %q at index %d", ch, l.index)
		}

		matched := matchedRuleType(cs, loc)
		if matched == "" {
			return nil, fmt.Errorf("internal error: no named group matched at index %d", l.index)
		}
		value := rest[loc[0]:loc[1]]

		typ := matched
		if remapped, ok := l.remap[typ][value]; ok {
			typ = remapped
		}

		tok := &Token{
			Type:   typ,
			Value:  value,
			Lineno: l.lineno,
			Index:  l.index,
			End:    l.index + loc[1],
		}
		l.advance(loc[1])

		if rule, ok := cs.rules[matched]; ok && rule.Action != nil {
			// Run before the Ignore check so an ignored rule (the
			// canonical ignore_newline case, spec.md §4.6) still gets
			// to observe its own match and update lineno.
			var yield bool
			var err error
			tok, yield, err = rule.Action(l, tok)
			if err != nil {
				return nil, err
			}
			if !yield {
				continue
			}
			return tok, nil
		}

		if cs.ignore[matched] {
			continue
		}

		return tok, nil
	}
}

// matchedRuleType returns the rule Type whose named group matched,
// independent of any keyword remap applied to the returned token.
func matchedRuleType(cs *compiledState, loc []int) string {
	for i := 1; i*2 < len(loc); i++ {
		if loc[i*2] < 0 {
			continue
		}
		name := cs.names[i]
		for t := range cs.rules {
			if groupSafeName(t) == name {
				return t
			}
		}
	}
	return ""
}

func unsafeGroupName(name string) (string, bool) {
	if strings.HasPrefix(name, "T_") {
		return strings.TrimPrefix(name, "T_"), true
	}
	return "", false
}

// advance moves the index forward by n bytes of the current remainder.
// It never inspects the consumed bytes: line tracking is opt-in, left
// entirely to a user-supplied Rule.Action calling SetLineno (spec.md
// §4.6), the way original_source/sly/lex.py's tokenize only persists
// whatever self.lineno a token function assigns rather than scanning
// matched text itself.
func (l *Lexer) advance(n int) {
	l.index += n
}

// Lineno returns the line number that will be stamped on the next token.
func (l *Lexer) Lineno() int {
	return l.lineno
}

// SetLineno sets the line number stamped on subsequently produced
// tokens. A Rule.Action is the only place this should be called from,
// typically an ignore_newline-style rule counting '\n' in its own
// match (spec.md §4.6).
func (l *Lexer) SetLineno(n int) {
	l.lineno = n
}
