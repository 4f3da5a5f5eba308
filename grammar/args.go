package grammar

// Args is the view a production's Action gets over the values and source
// positions of its RHS symbols, playing the role yacc's `$1, $2, ...` and
// SLY's `p[1], p[2], ...` play (original_source/sly/yacc.py's YaccProduction)
// but with both positional and by-name access, per spec.md §3.
type Args struct {
	values []interface{}
	lineno []int
	index  []int
	endex  []int
	names  map[string]int

	// lhsValue is what Get(-1) returns. Neither this package nor the
	// parser runtime ever assigns it, so it is always nil.
	lhsValue interface{}

	ctrl ErrorControl
}

// ErrorControl gives an Action the yacc-style `errok()`/`restart()` hooks
// (spec.md §4.5) for use inside an `error`-trapping production: Errok
// tells the runtime the parser has recovered without needing three
// further successful shifts, and Restart discards the current
// look-ahead token so the next one is read fresh.
type ErrorControl interface {
	Errok()
	Restart()
}

// Errok signals recovery from error state, matching yacc's `yyerrok`.
func (a *Args) Errok() {
	if a.ctrl != nil {
		a.ctrl.Errok()
	}
}

// Restart discards the current look-ahead, matching yacc's `yyclearin`.
func (a *Args) Restart() {
	if a.ctrl != nil {
		a.ctrl.Restart()
	}
}

func newArgs(n int, names map[string]int) *Args {
	return &Args{
		values: make([]interface{}, n),
		lineno: make([]int, n),
		index:  make([]int, n),
		endex:  make([]int, n),
		names:  names,
	}
}

// Len returns the number of symbols on the production's RHS.
func (a *Args) Len() int {
	return len(a.values)
}

// Get returns the value of the i'th RHS symbol (0-based). A negative i
// returns lhsValue, which is never assigned, so Get(-1) always returns
// nil: the value of the symbol to the left of an embedded action is not
// available through Args.
func (a *Args) Get(i int) interface{} {
	if i < 0 {
		return a.lhsValue
	}
	return a.values[i]
}

// Named returns the value of the RHS symbol registered under name. When a
// name appears more than once on the RHS, disambiguate with "name0",
// "name1", ... in left-to-right order, matching production.nameIndex.
func (a *Args) Named(name string) (interface{}, bool) {
	i, ok := a.names[name]
	if !ok {
		return nil, false
	}
	return a.values[i], true
}

// Lineno returns the source line of the i'th RHS symbol.
func (a *Args) Lineno(i int) int {
	return a.lineno[i]
}

// Index and EndIndex return the byte offsets spanned by the i'th RHS
// symbol in the original input, so an Action can report a position range
// derived from more than one token.
func (a *Args) Index(i int) int {
	return a.index[i]
}

func (a *Args) EndIndex(i int) int {
	return a.endex[i]
}
