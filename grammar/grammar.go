package grammar

import (
	"fmt"

	symtab "github.com/ply-toolkit/ply/grammar/symbol"
)

// Associativity is the exported spelling of assocType, used by
// Grammar.DeclarePrecedence's public signature.
type Associativity string

const (
	LeftAssoc  Associativity = Associativity(assocTypeLeft)
	RightAssoc Associativity = Associativity(assocTypeRight)
	NonAssoc   Associativity = Associativity(assocTypeNon)
)

// Rule describes one production to add to a Grammar: LHS → RHS, an
// optional per-symbol name for Args.Named lookups, the reduction Action,
// an optional explicit precedence terminal (the %prec-equivalent), and
// whether it participates in error recovery (spec.md §4.5's `error`
// productions, called "recover productions" here after the teacher's
// recoverProductions set in grammar.go).
type Rule struct {
	LHS     string
	RHS     []string
	Names   []string
	Action  Action
	Prec    string
	Recover bool
}

// Grammar accumulates terminals, non-terminals, productions and
// precedence declarations through its builder methods, then Compile
// turns the accumulated state into a ready-to-run CompiledGrammar. This
// replaces the teacher's GrammarBuilder, which built the same fields from
// a parsed grammar-file AST (grammar.go's GrammarBuilder.Build); here the
// same fields are populated directly by API calls instead of a DSL.
type Grammar struct {
	name          string
	symbolTable   *symtab.Table
	productionSet *productionSet
	startSymbol   symbol
	errorSymbol   symbol
	precBuilder   *precedenceBuilder

	recoverProductions map[productionID]struct{}
	precOverrideRefs   map[symbol]bool

	compiled bool
}

func NewGrammar(name string) *Grammar {
	tab := symtab.NewTable()
	return &Grammar{
		name:               name,
		symbolTable:        tab,
		productionSet:      newProductionSet(),
		precOverrideRefs:   map[symbol]bool{},
		errorSymbol:        tab.ErrorSymbol(),
		precBuilder:        newPrecedenceBuilder(),
		recoverProductions: map[productionID]struct{}{},
	}
}

// AddTerminal registers a terminal symbol; registering the same name
// twice returns the existing symbol.
func (g *Grammar) AddTerminal(name string) (symtab.Symbol, error) {
	if name == "" {
		return symtab.Nil, newBuildError("a terminal name must not be empty")
	}
	return g.symbolTable.Writer().RegisterTerminalSymbol(name)
}

// AddNonTerminal registers a non-terminal symbol.
func (g *Grammar) AddNonTerminal(name string) (symtab.Symbol, error) {
	if name == "" {
		return symtab.Nil, newBuildError("a non-terminal name must not be empty")
	}
	return g.symbolTable.Writer().RegisterNonTerminalSymbol(name)
}

// SetStart declares the grammar's start non-terminal.
func (g *Grammar) SetStart(name string) error {
	sym, ok := g.symbolTable.Reader().ToSymbol(name)
	if !ok {
		var err error
		sym, err = g.AddNonTerminal(name)
		if err != nil {
			return err
		}
	}
	if sym.IsTerminal() {
		return newBuildError("start symbol %q must be a non-terminal", name)
	}
	g.startSymbol = sym
	return nil
}

// DeclarePrecedence records one %left/%right/%nonassoc-equivalent
// declaration. Call order matters: later calls declare higher precedence,
// exactly like a yacc grammar's declaration list or SLY's `precedence`
// tuple (original_source/sly/yacc.py).
func (g *Grammar) DeclarePrecedence(assoc Associativity, terminals ...string) error {
	if len(terminals) == 0 {
		return newBuildError("a precedence declaration needs at least one terminal")
	}
	syms := make([]symbol, len(terminals))
	for i, name := range terminals {
		sym, ok := g.symbolTable.Reader().ToSymbol(name)
		if !ok {
			return newBuildError("undeclared terminal %q in precedence declaration", name)
		}
		if !sym.IsTerminal() {
			return newBuildError("%q is not a terminal; precedence can only be declared for terminals", name)
		}
		syms[i] = sym
	}
	g.precBuilder.declare(assocType(assoc), syms)
	return nil
}

// AddProduction adds one production to the grammar. RHS symbols must
// already have been registered (as terminals, non-terminals, or the
// grammar's own start symbol); an empty RHS declares an ε-production.
func (g *Grammar) AddProduction(r Rule) error {
	lhs, err := g.AddNonTerminal(r.LHS)
	if err != nil {
		return err
	}

	rhs := make([]symbol, len(r.RHS))
	for i, name := range r.RHS {
		sym, ok := g.symbolTable.Reader().ToSymbol(name)
		if !ok {
			return newBuildError("production %q: undeclared symbol %q", r.LHS, name)
		}
		rhs[i] = sym
	}

	names := r.Names
	if names == nil {
		names = make([]string, len(rhs))
	} else if len(names) != len(rhs) {
		return newBuildError("production %q: %v names given for %v RHS symbols", r.LHS, len(names), len(rhs))
	}

	prod, err := newProduction(lhs, rhs, names, r.Action)
	if err != nil {
		return err
	}

	if r.Prec != "" {
		sym, ok := g.symbolTable.Reader().ToSymbol(r.Prec)
		if !ok || !sym.IsTerminal() {
			return newBuildError("production %q: %%prec terminal %q is not a declared terminal", r.LHS, r.Prec)
		}
		override, ok := g.precBuilder.levelOf(sym)
		if !ok {
			return newBuildError("production %q: %%prec terminal %q has no declared precedence", r.LHS, r.Prec)
		}
		prod.prec = override
		g.precOverrideRefs[sym] = true
	}

	if !g.productionSet.append(prod) {
		return newBuildError("production %q → %v is a duplicate", r.LHS, r.RHS)
	}

	if r.Recover {
		g.recoverProductions[prod.id] = struct{}{}
	}

	return nil
}

// Validate checks the grammar for fatal structural problems without
// building the LALR(1) table: a missing start symbol, no productions at
// all, and non-terminals that can never derive a string of terminals
// (spec.md §4.1's productivity requirement, whose boundary case is a
// grammar consisting solely of `S → S`). Compile calls this first and
// returns its result unchanged when non-nil.
func (g *Grammar) Validate() *GrammarError {
	buildErrs := &GrammarError{}

	if g.startSymbol.IsNil() {
		buildErrs.append(newBuildError("no start symbol declared; call SetStart"))
	}
	if len(g.productionSet.getAllProductions()) == 0 {
		buildErrs.append(newBuildError("grammar has no productions"))
	}
	if buildErrs.hasErrors() {
		return buildErrs
	}

	reader := g.symbolTable.Reader()
	for _, sym := range nonProductiveNonTerminals(g.productionSet, reader) {
		name, _ := reader.ToText(sym)
		buildErrs.append(newBuildError("non-terminal %q is not productive; it never derives a string of terminals", name))
	}
	if buildErrs.hasErrors() {
		return buildErrs
	}
	return nil
}

// Warnings returns the non-fatal findings Compile would also surface
// through CompiledGrammar.Warnings, computable before the LALR(1) table
// is built: terminals that appear on no RHS and non-terminals that are
// defined but appear on no production's RHS. Call it
// ahead of Compile to inspect a grammar that fails Validate, since
// Compile itself never reaches the point of computing conflict
// warnings for an invalid grammar.
func (g *Grammar) Warnings() []*Warning {
	reader := g.symbolTable.Reader()
	return checkUnusedSymbols(g.productionSet, reader, g.startSymbol, g.precOverrideRefs)
}

// nonProductiveNonTerminals computes the set of non-terminals that can
// never derive a finite string of terminals, by growing the set of
// "productive" symbols to a fixed point: a terminal is always
// productive, and a non-terminal becomes productive once some
// production has it as its LHS and every symbol on that production's
// RHS is already productive (an empty RHS is vacuously productive).
// Anything left over that some production declares as its LHS is
// non-productive, e.g. `S → S` alone, since S only ever depends on
// itself.
func nonProductiveNonTerminals(prods *productionSet, reader *symtab.Reader) []symbol {
	productive := map[symbol]bool{}
	for _, sym := range reader.TerminalSymbols() {
		productive[sym] = true
	}

	all := prods.getAllProductions()
	for {
		changed := false
		for _, prod := range all {
			if productive[prod.lhs] {
				continue
			}
			ok := true
			for _, sym := range prod.rhs {
				if !productive[sym] {
					ok = false
					break
				}
			}
			if ok {
				productive[prod.lhs] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	declared := map[symbol]bool{}
	for _, prod := range all {
		declared[prod.lhs] = true
	}

	var bad []symbol
	for _, sym := range reader.NonTerminalSymbols() {
		if declared[sym] && !productive[sym] {
			bad = append(bad, sym)
		}
	}
	return bad
}

// CompiledGrammar is the immutable result of Grammar.Compile: the LALR(1)
// automaton, the ACTION/GOTO table, and enough symbol/production metadata
// for a parser.Runtime to drive a parse without depending on the grammar
// package's unexported types (the same decoupling driver/spec.go's
// grammarImpl gives the teacher's runtime, adapted here for an in-process
// grammar instead of a deserialized one).
type CompiledGrammar struct {
	name          string
	symbolTable   *symtab.Table
	productionSet *productionSet
	table         *ParsingTable
	precAndAssoc  *precAndAssoc
	augStart      symbol
	errorSymbol   symbol

	recoverProductions map[productionID]struct{}

	conflicts []conflict
	warnings  []*Warning
	automaton *lalr1Automaton
}

// Compile builds the LR(0) automaton, computes LALR(1) look-ahead sets,
// and builds the ACTION/GOTO table, in that order (spec.md §4.2-§4.4).
func (g *Grammar) Compile(opts ...CompileOption) (*CompiledGrammar, error) {
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	augStartName := "$" + g.name + "'"
	augStart, err := g.symbolTable.Writer().RegisterStartSymbol(augStartName)
	if err != nil {
		return nil, err
	}
	augProd, err := newProduction(augStart, []symbol{g.startSymbol}, []string{""}, nil)
	if err != nil {
		return nil, err
	}
	g.productionSet.append(augProd)

	first, err := genFirstSet(g.productionSet)
	if err != nil {
		return nil, err
	}

	lr0, err := genLR0Automaton(g.productionSet, augStart, g.errorSymbol)
	if err != nil {
		return nil, err
	}

	lalr, err := genLALR1Automaton(lr0, g.productionSet, first)
	if err != nil {
		return nil, err
	}

	precAndAssoc := g.precBuilder.build(g.productionSet)

	reader := g.symbolTable.Reader()
	tb := &tableBuilder{
		automaton:              lalr,
		prods:                  g.productionSet,
		termCount:              reader.TerminalCount(),
		nonTermCount:           reader.NonTerminalCount(),
		precAndAssoc:           precAndAssoc,
		disableDefaultedStates: cfg.disableDefaultedStates,
	}
	table, err := tb.build()
	if err != nil {
		return nil, err
	}

	var warnings []*Warning
	for _, c := range tb.conflicts {
		if sr, ok := c.(*shiftReduceConflict); ok && sr.resolvedBy == ResolvedByShift {
			name, _ := reader.ToText(sr.sym)
			warnings = append(warnings, &Warning{Detail: fmt.Sprintf(
				"state %v: shift/reduce conflict on %q resolved by shift (no precedence declared)", sr.state, name)})
		}
	}
	warnings = append(warnings, checkUnusedSymbols(g.productionSet, reader, g.startSymbol, g.precOverrideRefs)...)

	return &CompiledGrammar{
		name:               g.name,
		symbolTable:        g.symbolTable,
		productionSet:      g.productionSet,
		table:              table,
		precAndAssoc:       precAndAssoc,
		augStart:           augStart,
		errorSymbol:        g.errorSymbol,
		recoverProductions: g.recoverProductions,
		conflicts:          tb.conflicts,
		warnings:           warnings,
		automaton:          lalr,
	}, nil
}

type compileConfig struct {
	disableDefaultedStates bool
}

// CompileOption configures Grammar.Compile.
type CompileOption func(*compileConfig)

// DisableDefaultedStates turns off the defaulted-states table compaction
// (spec.md §4.4), so every reduce action keeps its own ACTION cell. The
// description dump does not depend on it: it lists reduces from the
// look-ahead sets either way.
func DisableDefaultedStates() CompileOption {
	return func(c *compileConfig) { c.disableDefaultedStates = true }
}

// Warnings returns the non-fatal findings recorded during Compile.
func (cg *CompiledGrammar) Warnings() []*Warning {
	return cg.warnings
}

// checkUnusedSymbols warns about a non-terminal that is the LHS of some
// production but never appears on any RHS (one used only on its own RHS
// is not reported) and a terminal that never appears on any RHS,
// mirroring original_source/sly/yacc.py's grammar-validation
// pass (SPEC_FULL.md §12): both are surfaced as warnings, not errors,
// since a grammar author may be building the grammar incrementally. A
// terminal referenced only through a production's %prec-equivalent
// (Rule.Prec, e.g. UMINUS) counts as used even though it never appears
// on any RHS.
func checkUnusedSymbols(prods *productionSet, reader *symtab.Reader, start symbol, precRefs map[symbol]bool) []*Warning {
	usedOnRHS := map[symbol]bool{}
	lhsDeclared := map[symbol]bool{}
	for _, prod := range prods.getAllProductions() {
		lhsDeclared[prod.lhs] = true
		for _, sym := range prod.rhs {
			usedOnRHS[sym] = true
		}
	}
	for sym := range precRefs {
		usedOnRHS[sym] = true
	}

	var warnings []*Warning
	for _, sym := range reader.NonTerminalSymbols() {
		if sym == start || sym.IsStart() {
			continue
		}
		if lhsDeclared[sym] && !usedOnRHS[sym] {
			name, _ := reader.ToText(sym)
			warnings = append(warnings, &Warning{Detail: fmt.Sprintf(
				"non-terminal %q is never used on the right-hand side of any production", name)})
		}
	}
	for _, sym := range reader.TerminalSymbols() {
		if sym.IsEOF() || sym.IsError() {
			continue
		}
		if !usedOnRHS[sym] {
			name, _ := reader.ToText(sym)
			warnings = append(warnings, &Warning{Detail: fmt.Sprintf(
				"terminal %q is declared but never referenced by any production", name)})
		}
	}
	return warnings
}

// Reduce constructs an Args from the values/positions of a production's
// RHS and invokes its Action, keeping Args' internals private to this
// package (see grammar/args.go).
func (cg *CompiledGrammar) Reduce(prodNumInt int, values []interface{}, lineno, index, endex []int, ctrl ErrorControl) (interface{}, error) {
	prodNum := productionNum(prodNumInt)
	prod, ok := cg.productionSet.findByNum(prodNum)
	if !ok {
		return nil, fmt.Errorf("production not found: %v", prodNum)
	}
	if prod.action == nil {
		if len(values) > 0 {
			return values[0], nil
		}
		return nil, nil
	}

	args := newArgs(len(values), prod.nameIndex())
	copy(args.values, values)
	copy(args.lineno, lineno)
	copy(args.index, index)
	copy(args.endex, endex)
	args.ctrl = ctrl

	return prod.action(args)
}

func (cg *CompiledGrammar) LHS(prodNumInt int) symtab.Symbol {
	prod, ok := cg.productionSet.findByNum(productionNum(prodNumInt))
	if !ok {
		return symtab.Nil
	}
	return prod.lhs
}

func (cg *CompiledGrammar) RHSLen(prodNumInt int) int {
	prod, ok := cg.productionSet.findByNum(productionNum(prodNumInt))
	if !ok {
		return 0
	}
	return prod.rhsLen
}

func (cg *CompiledGrammar) IsRecoverProduction(prodNumInt int) bool {
	prod, ok := cg.productionSet.findByNum(productionNum(prodNumInt))
	if !ok {
		return false
	}
	_, ok = cg.recoverProductions[prod.id]
	return ok
}

func (cg *CompiledGrammar) StartProduction() int {
	return productionNumStart.Int()
}

func (cg *CompiledGrammar) InitialState() int {
	return cg.table.InitialState.Int()
}

func (cg *CompiledGrammar) Action(state, term int) (ActionType, int, int) {
	ty, next, prod := cg.table.getAction(stateNum(state), symtab.Num(term))
	return ty, next.Int(), prod.Int()
}

func (cg *CompiledGrammar) GoTo(state, nonTerm int) (int, bool) {
	ty, next := cg.table.getGoTo(stateNum(state), symtab.Num(nonTerm))
	return next.Int(), ty == GoToTypeRegistered
}

func (cg *CompiledGrammar) IsErrorTrapperState(state int) bool {
	return cg.table.isErrorTrapperState(stateNum(state))
}

func (cg *CompiledGrammar) ErrorSymbol() symtab.Symbol {
	return cg.errorSymbol
}

func (cg *CompiledGrammar) EOF() symtab.Symbol {
	return symtab.EOF
}

func (cg *CompiledGrammar) TerminalCount() int {
	return cg.symbolTable.Reader().TerminalCount()
}

func (cg *CompiledGrammar) NonTerminalCount() int {
	return cg.symbolTable.Reader().NonTerminalCount()
}

func (cg *CompiledGrammar) TerminalToNum(sym symtab.Symbol) int {
	return sym.Num().Int()
}

// NonTerminalToNum returns a non-terminal's ordinal within the
// non-terminal numbering space, the index parser.Runtime uses into
// CompiledGrammar.GoTo after a reduction.
func (cg *CompiledGrammar) NonTerminalToNum(sym symtab.Symbol) int {
	return sym.Num().Int()
}

func (cg *CompiledGrammar) SymbolText(sym symtab.Symbol) string {
	text, ok := cg.symbolTable.Reader().ToText(sym)
	if !ok {
		return fmt.Sprintf("<symbol %v>", sym)
	}
	return text
}

// TerminalByNum reverse-looks-up a terminal ordinal to its Symbol, for
// rendering a syntax error's expected-terminal list from raw table
// indices.
func (cg *CompiledGrammar) TerminalByNum(num int) (symtab.Symbol, bool) {
	for _, sym := range cg.symbolTable.Reader().TerminalSymbols() {
		if sym.Num().Int() == num {
			return sym, true
		}
	}
	return symtab.Nil, false
}

func (cg *CompiledGrammar) TerminalByText(text string) (symtab.Symbol, bool) {
	sym, ok := cg.symbolTable.Reader().ToSymbol(text)
	if !ok || !sym.IsTerminal() {
		return symtab.Nil, false
	}
	return sym, true
}
