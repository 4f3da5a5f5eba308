// Package parser implements the shift/reduce driver that walks a
// grammar.CompiledGrammar's ACTION/GOTO table against a token stream from
// the lexer package, generalizing the teacher's driver.Parser (which drove
// a fixed AST/CST-building action against a deserialized spec.CompiledGrammar)
// to invoke an arbitrary CompiledGrammar.Reduce for every production
// instead of building one of two hardcoded tree shapes.
package parser

import (
	"fmt"
	"reflect"

	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/lexer"
)

// SyntaxError reports one unexpected token, in the same shape the
// teacher's driver.SyntaxError uses (Row/Col there, Lineno/Index here to
// match lexer.Token's fields).
type SyntaxError struct {
	Lineno            int
	Index             int
	Message           string
	Token             *lexer.Token
	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v:%v: %v", e.Lineno, e.Index, e.Message)
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// position is the (lineno, index, endex) triple recorded against a
// reduced or shifted value's identity, so LinePosition/IndexPosition
// can answer a query after the value has been popped off the stack.
type position struct {
	lineno, index, endex int
}

// Runtime drives a single parse of a token stream against a compiled
// grammar's ACTION/GOTO table.
type Runtime struct {
	gram *grammar.CompiledGrammar
	lex  *lexer.Lexer

	stateStack  []int
	valueStack  []interface{}
	linenoStack []int
	indexStack  []int
	endexStack  []int

	// positions maps a pointer-typed value's identity (reflect.Value's
	// Pointer(), mirroring CPython's id()) to the position recorded for
	// it at push time, so grammar authors can later query a node's
	// source position via LinePosition/IndexPosition without threading
	// lineno/index through their own AST types (spec.md §6, SPEC_FULL.md
	// §9). Only pointer-typed values carry identity this way.
	positions map[uintptr]position

	result interface{}

	onError    bool
	shiftCount int
	synErrs    []*SyntaxError

	// errorHook, when set, is invoked once per syntax error before the
	// synthetic error-terminal recovery path runs (spec.md §4.5 steps
	// 1-3). If it returns a non-nil token, that token replaces the
	// current lookahead and parsing resumes without entering
	// error-recovery mode; if it returns nil, recovery proceeds as
	// usual.
	errorHook func(tok *lexer.Token) *lexer.Token

	// recoveryShifts is the number of consecutive successful shifts the
	// parser must make after entering error-recovery mode before it
	// resumes normal error reporting, matching the teacher's
	// hardcoded 3-shift window in driver/parser.go's Parse.
	recoveryShifts int
}

// WithRecoveryShifts overrides the number of shifts needed to leave
// error-recovery mode (default 3, the teacher's value).
func WithRecoveryShifts(n int) Option {
	return func(r *Runtime) { r.recoveryShifts = n }
}

// WithErrorHook installs a global syntax-error callback equivalent to
// SLY's overridable `error(tok)` method (original_source/sly/yacc.py):
// on the first error in the current window it is invoked with the
// offending token (nil at EOF), and if it returns a replacement token,
// that token is used as the new lookahead and parsing resumes without
// engaging the synthetic error-terminal recovery machinery.
func WithErrorHook(fn func(tok *lexer.Token) *lexer.Token) Option {
	return func(r *Runtime) { r.errorHook = fn }
}

// New creates a Runtime that will drive gram's table against tokens from
// lex. Call lex.SetInput before Parse.
func New(gram *grammar.CompiledGrammar, lex *lexer.Lexer, opts ...Option) *Runtime {
	r := &Runtime{
		gram:           gram,
		lex:            lex,
		recoveryShifts: 3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result returns the value the accepting production reduced to, valid
// after a successful Parse.
func (r *Runtime) Result() interface{} {
	return r.result
}

// SyntaxErrors returns every syntax error found during Parse, in the
// order encountered.
func (r *Runtime) SyntaxErrors() []*SyntaxError {
	return r.synErrs
}

// pointerIdentity returns the address reflect.ValueOf(v) points at, and
// whether v carries identity at all (only pointer-typed values do; a
// plain int or string result has no address to key the position map
// by).
func pointerIdentity(v interface{}) (uintptr, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, false
	}
	return rv.Pointer(), true
}

// LinePosition returns the line number recorded for value, the way
// spec.md §6's line_position(value) contract is specified. It only
// finds an entry for pointer-typed values previously shifted or
// reduced to during this parse.
func (r *Runtime) LinePosition(value interface{}) (int, bool) {
	ptr, ok := pointerIdentity(value)
	if !ok {
		return 0, false
	}
	pos, ok := r.positions[ptr]
	if !ok {
		return 0, false
	}
	return pos.lineno, true
}

// IndexPosition returns the (start, end) byte-offset span recorded for
// value, spec.md §6's index_position(value) contract.
func (r *Runtime) IndexPosition(value interface{}) (start, end int, ok bool) {
	ptr, ok := pointerIdentity(value)
	if !ok {
		return 0, 0, false
	}
	pos, ok := r.positions[ptr]
	if !ok {
		return 0, 0, false
	}
	return pos.index, pos.endex, true
}

// errCtrl adapts a Runtime to grammar.ErrorControl, so an Action running
// inside Reduce can call Args.Errok/Args.Restart to influence recovery.
type errCtrl struct {
	r       *Runtime
	restart bool
}

func (c *errCtrl) Errok() {
	c.r.onError = false
	c.r.shiftCount = 0
}

func (c *errCtrl) Restart() {
	c.restart = true
}

// Parse runs the shift/reduce loop to completion: acceptance, an
// unrecoverable syntax error, or a lexer error.
func (r *Runtime) Parse() error {
	r.push(r.gram.InitialState(), nil, 0, 0, 0)

	tok, term, err := r.nextTerminal()
	if err != nil {
		return err
	}

ACTION_LOOP:
	for {
		ty, next, prodNum := r.gram.Action(r.top(), term)
		switch ty {
		case grammar.ActionTypeShift:
			if r.onError {
				r.shiftCount++
				if r.shiftCount >= r.recoveryShifts {
					r.onError = false
					r.shiftCount = 0
				}
			}

			var lineno, index, endex int
			var value interface{} = tok
			if tok != nil {
				lineno, index, endex = tok.Lineno, tok.Index, tok.End
			}
			r.push(next, value, lineno, index, endex)

			tok, term, err = r.nextTerminal()
			if err != nil {
				return err
			}

		case grammar.ActionTypeReduce:
			if r.onError && r.gram.IsRecoverProduction(prodNum) {
				r.onError = false
				r.shiftCount = 0
			}

			accepted, restart, err := r.reduce(prodNum)
			if err != nil {
				return err
			}
			if accepted {
				return nil
			}

			if restart {
				tok, term, err = r.nextTerminal()
				if err != nil {
					return err
				}
			}

		default: // ActionTypeError
			if r.onError {
				tok, term, err = r.nextTerminal()
				if err != nil {
					return err
				}
				if tok == nil && term == r.gram.TerminalToNum(r.gram.EOF()) {
					return nil
				}
				continue ACTION_LOOP
			}

			lineno, index := 0, 0
			if tok != nil {
				lineno, index = tok.Lineno, tok.Index
			}
			r.synErrs = append(r.synErrs, &SyntaxError{
				Lineno:            lineno,
				Index:             index,
				Message:           "unexpected token",
				Token:             tok,
				ExpectedTerminals: r.searchLookahead(r.top()),
			})

			if r.errorHook != nil {
				if replacement := r.errorHook(tok); replacement != nil {
					tok = replacement
					sym, ok := r.gram.TerminalByText(tok.Type)
					if !ok {
						return fmt.Errorf("token type %q has no matching grammar terminal", tok.Type)
					}
					term = r.gram.TerminalToNum(sym)
					continue ACTION_LOOP
				}
			}

			if !r.trapError() {
				return nil
			}

			r.onError = true
			r.shiftCount = 0

			errNum := r.gram.TerminalToNum(r.gram.ErrorSymbol())
			errTy, errNext, _ := r.gram.Action(r.top(), errNum)
			if errTy != grammar.ActionTypeShift {
				return fmt.Errorf("state %v has no shift action on the error symbol", r.top())
			}
			r.push(errNext, nil, lineno, index, index)
		}
	}
}

// nextTerminal pulls the next lexer token (nil at EOF) and maps it to a
// terminal ordinal for table lookup.
func (r *Runtime) nextTerminal() (*lexer.Token, int, error) {
	tok, err := r.lex.Next()
	if err != nil {
		return nil, 0, err
	}
	if tok == nil {
		return nil, r.gram.TerminalToNum(r.gram.EOF()), nil
	}
	sym, ok := r.gram.TerminalByText(tok.Type)
	if !ok {
		return nil, 0, fmt.Errorf("token type %q has no matching grammar terminal", tok.Type)
	}
	return tok, r.gram.TerminalToNum(sym), nil
}

func (r *Runtime) reduce(prodNum int) (accepted bool, restart bool, err error) {
	if prodNum == r.gram.StartProduction() {
		top := r.valueStack[len(r.valueStack)-1]
		r.result = top
		return true, false, nil
	}

	n := r.gram.RHSLen(prodNum)
	values := append([]interface{}{}, r.valueStack[len(r.valueStack)-n:]...)
	lineno := append([]int{}, r.linenoStack[len(r.linenoStack)-n:]...)
	index := append([]int{}, r.indexStack[len(r.indexStack)-n:]...)
	endex := append([]int{}, r.endexStack[len(r.endexStack)-n:]...)

	ctrl := &errCtrl{r: r}
	value, err := r.gram.Reduce(prodNum, values, lineno, index, endex, ctrl)
	if err != nil {
		return false, false, err
	}

	r.pop(n)

	lhs := r.gram.LHS(prodNum)
	nextState, ok := r.gram.GoTo(r.top(), r.gram.NonTerminalToNum(lhs))
	if !ok {
		return false, false, fmt.Errorf("no GOTO entry for state %v, non-terminal %v", r.top(), r.gram.SymbolText(lhs))
	}

	// spec.md §4.5: lineno = min child lineno (ignoring unset), index =
	// min child index, end = max child end, aggregated across every RHS
	// child rather than just the first/last. An epsilon-reduced child
	// (an RHS of length 0 in its own reduce) always carries the all-zero
	// (0,0,0) triple and is excluded from the index/endex aggregation so
	// it can't pollute a production whose first RHS symbol is nullable;
	// lineno is ignored per-child since it is commonly 0 on real tokens
	// too when the grammar's lexer never opts into line tracking.
	var ln, idx, edx int
	var lnSet, idxSet bool
	for i := 0; i < n; i++ {
		if lineno[i] != 0 && (!lnSet || lineno[i] < ln) {
			ln = lineno[i]
			lnSet = true
		}
		if index[i] == 0 && endex[i] == 0 {
			continue
		}
		if !idxSet || index[i] < idx {
			idx = index[i]
			idxSet = true
		}
		if endex[i] > edx {
			edx = endex[i]
		}
	}
	r.push(nextState, value, ln, idx, edx)

	return false, ctrl.restart, nil
}

// trapError pops the stack until an error-trapper state (one with an item
// whose dot is right before the `error` token) is on top, the same stack-unwind
// driver/parser.go's Parser.trapError performs.
func (r *Runtime) trapError() bool {
	for {
		if r.gram.IsErrorTrapperState(r.top()) {
			return true
		}
		if r.top() == r.gram.InitialState() {
			return false
		}
		r.pop(1)
	}
}

// searchLookahead lists the terminals with a non-error ACTION table entry
// in state, for a syntax error's ExpectedTerminals, mirroring
// driver/parser.go's Parser.searchLookahead.
func (r *Runtime) searchLookahead(state int) []string {
	var expected []string
	errNum := r.gram.TerminalToNum(r.gram.ErrorSymbol())
	eofNum := r.gram.TerminalToNum(r.gram.EOF())
	for term := 0; term < r.gram.TerminalCount(); term++ {
		if term == errNum {
			continue
		}
		ty, _, _ := r.gram.Action(state, term)
		if ty == grammar.ActionTypeError {
			continue
		}
		if term == eofNum {
			expected = append(expected, "<eof>")
			continue
		}
		sym, ok := r.gram.TerminalByNum(term)
		if !ok {
			continue
		}
		expected = append(expected, r.gram.SymbolText(sym))
	}
	return expected
}

func (r *Runtime) top() int {
	return r.stateStack[len(r.stateStack)-1]
}

func (r *Runtime) push(state int, value interface{}, lineno, index, endex int) {
	r.stateStack = append(r.stateStack, state)
	r.valueStack = append(r.valueStack, value)
	r.linenoStack = append(r.linenoStack, lineno)
	r.indexStack = append(r.indexStack, index)
	r.endexStack = append(r.endexStack, endex)

	if ptr, ok := pointerIdentity(value); ok {
		if r.positions == nil {
			r.positions = map[uintptr]position{}
		}
		r.positions[ptr] = position{lineno: lineno, index: index, endex: endex}
	}
}

func (r *Runtime) pop(n int) {
	r.stateStack = r.stateStack[:len(r.stateStack)-n]
	r.valueStack = r.valueStack[:len(r.valueStack)-n]
	r.linenoStack = r.linenoStack[:len(r.linenoStack)-n]
	r.indexStack = r.indexStack[:len(r.indexStack)-n]
	r.endexStack = r.endexStack[:len(r.endexStack)-n]
}
