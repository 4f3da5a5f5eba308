package grammar

import (
	"fmt"
	"math"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeError  = ActionType("error")
)

// actionEntry packs one ACTION table cell. Zero means "no entry" (a plain
// syntax error); a negative value other than actionEntryNonAssocError is
// a shift to state -value; a positive value is a reduce by that
// production; actionEntryNonAssocError (math.MinInt32) marks a cell that a
// %nonassoc declaration
// (spec.md §4.4) deliberately resolved to a syntax error, so later writes
// to the same cell know not to treat it as still-open.
type actionEntry int

const (
	actionEntryEmpty         = actionEntry(0)
	actionEntryNonAssocError = actionEntry(math.MinInt32)
)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	switch {
	case e == actionEntryEmpty, e == actionEntryNonAssocError:
		return ActionTypeError, stateNumInitial, productionNumNil
	case e < 0:
		return ActionTypeShift, stateNum(e * -1), productionNumNil
	default:
		return ActionTypeReduce, stateNumInitial, productionNum(e)
	}
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type conflictResolutionMethod int

const (
	ResolvedByPrec      conflictResolutionMethod = 1
	ResolvedByAssoc     conflictResolutionMethod = 2
	ResolvedByShift     conflictResolutionMethod = 3
	ResolvedByProdOrder conflictResolutionMethod = 4
)

func (m conflictResolutionMethod) String() string {
	switch m {
	case ResolvedByPrec:
		return "precedence"
	case ResolvedByAssoc:
		return "associativity"
	case ResolvedByShift:
		return "default-to-shift"
	case ResolvedByProdOrder:
		return "production order"
	default:
		return "unknown"
	}
}

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state      stateNum
	sym        symbol
	nextState  stateNum
	prodNum    productionNum
	resolvedBy conflictResolutionMethod
}

func (c *shiftReduceConflict) conflict() {}

type reduceReduceConflict struct {
	state      stateNum
	sym        symbol
	prodNum1   productionNum
	prodNum2   productionNum
	resolvedBy conflictResolutionMethod
}

func (c *reduceReduceConflict) conflict() {}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// ParsingTable is the compiled ACTION/GOTO table (spec.md §4.4), addressed
// by state number and symbol ordinal so lookups stay O(1) array indexing.
type ParsingTable struct {
	actionTable      []actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	// errorTrapperStates[s] is 1 when state s has an item of the form
	// A → α・error β (the α and β can be empty); the parser runtime's
	// error-recovery unwind (spec.md §4.5 step 4) stops popping the
	// stack as soon as it reaches such a state.
	errorTrapperStates []int

	// defaultReduce[s], when non-zero, is the production every empty
	// ACTION cell of state s falls back to. This is the "defaulted
	// states" compaction spec.md §4.4 calls for: a state with no shift
	// whose only possible action is a single reduce production doesn't
	// need one table cell per look-ahead terminal for that reduce, just
	// the one fallback number.
	defaultReduce []productionNum

	InitialState stateNum
}

func (t *ParsingTable) getAction(state stateNum, sym symbolNum) (ActionType, stateNum, productionNum) {
	pos := state.Int()*t.terminalCount + sym.Int()
	ty, next, prod := t.actionTable[pos].describe()
	if ty == ActionTypeError && t.actionTable[pos] != actionEntryNonAssocError {
		if t.defaultReduce != nil {
			if def := t.defaultReduce[state.Int()]; def != productionNumNil {
				return ActionTypeReduce, stateNumInitial, def
			}
		}
	}
	return ty, next, prod
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbolNum) (GoToType, stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Int()
	return t.goToTable[pos].describe()
}

func (t *ParsingTable) readAction(row, col int) actionEntry {
	return t.actionTable[row*t.terminalCount+col]
}

func (t *ParsingTable) writeAction(row, col int, act actionEntry) {
	t.actionTable[row*t.terminalCount+col] = act
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

func (t *ParsingTable) isErrorTrapperState(state stateNum) bool {
	return t.errorTrapperStates[state.Int()] == 1
}

// tableBuilder builds a ParsingTable from an LALR(1) automaton, resolving
// shift/reduce and reduce/reduce conflicts by precedence/associativity
// (spec.md §4.4) and, unless disableDefaultedStates is set, compacting
// single-production states with the defaultReduce fallback.
type tableBuilder struct {
	automaton    *lalr1Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	precAndAssoc *precAndAssoc

	disableDefaultedStates bool

	conflicts []conflict
}

func (b *tableBuilder) build() (*ParsingTable, error) {
	initialState := b.automaton.states[b.automaton.initialState]
	ptab := &ParsingTable{
		actionTable:        make([]actionEntry, len(b.automaton.states)*b.termCount),
		goToTable:          make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
		stateCount:         len(b.automaton.states),
		terminalCount:      b.termCount,
		nonTerminalCount:   b.nonTermCount,
		errorTrapperStates: make([]int, len(b.automaton.states)),
		defaultReduce:      make([]productionNum, len(b.automaton.states)),
		InitialState:       initialState.num,
	}

	for _, state := range b.automaton.states {
		if state.isErrorTrapper {
			ptab.errorTrapperStates[state.num] = 1
		}

		for sym, kID := range state.next {
			nextState := b.automaton.states[kID]
			if sym.IsTerminal() {
				b.writeShiftAction(ptab, state.num, sym, nextState.num)
			} else {
				ptab.writeGoTo(state.num, sym, nextState.num)
			}
		}

		for prodID := range state.reducible {
			reducibleProd, ok := b.prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodID)
			}

			item := findReducibleItem(state, prodID)
			if item == nil {
				return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, reducibleProd.num)
			}

			for a := range item.lookAhead.symbols {
				b.writeReduceAction(ptab, state.num, a, reducibleProd.num)
			}
		}
	}

	if !b.disableDefaultedStates {
		applyDefaultedStates(ptab)
	}

	return ptab, nil
}

// writeShiftAction resolves shift/reduce conflicts according to spec.md
// §4.4: an undefined-precedence conflict defaults to shift (with a
// recorded warning); otherwise the higher-precedence action wins, and
// equal precedence falls back to the operator's associativity.
func (b *tableBuilder) writeShiftAction(tab *ParsingTable, state stateNum, sym symbol, nextState stateNum) {
	act := tab.readAction(state.Int(), sym.Num().Int())
	if !act.isEmpty() && act != actionEntryNonAssocError {
		ty, _, p := act.describe()
		if ty == ActionTypeReduce {
			resolved, method := b.resolveConflict(sym.Num(), p)
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:      state,
				sym:        sym,
				nextState:  nextState,
				prodNum:    p,
				resolvedBy: method,
			})
			switch resolved {
			case ActionTypeShift:
				tab.writeAction(state.Int(), sym.Num().Int(), newShiftActionEntry(nextState))
			case ActionTypeError:
				tab.writeAction(state.Int(), sym.Num().Int(), actionEntryNonAssocError)
			}
			return
		}
	}
	tab.writeAction(state.Int(), sym.Num().Int(), newShiftActionEntry(nextState))
}

// writeReduceAction resolves reduce/reduce conflicts by lowest production
// number (spec.md §4.4: "the production declared earliest wins") and
// shift/reduce conflicts the same way writeShiftAction does.
func (b *tableBuilder) writeReduceAction(tab *ParsingTable, state stateNum, sym symbol, prod productionNum) {
	act := tab.readAction(state.Int(), sym.Num().Int())
	if !act.isEmpty() && act != actionEntryNonAssocError {
		ty, s, p := act.describe()
		switch ty {
		case ActionTypeReduce:
			if p == prod {
				return
			}
			winner := p
			if prod < p {
				winner = prod
			}
			b.conflicts = append(b.conflicts, &reduceReduceConflict{
				state:      state,
				sym:        sym,
				prodNum1:   p,
				prodNum2:   prod,
				resolvedBy: ResolvedByProdOrder,
			})
			tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(winner))
		case ActionTypeShift:
			resolved, method := b.resolveConflict(sym.Num(), prod)
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:      state,
				sym:        sym,
				nextState:  s,
				prodNum:    prod,
				resolvedBy: method,
			})
			switch resolved {
			case ActionTypeReduce:
				tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(prod))
			case ActionTypeError:
				tab.writeAction(state.Int(), sym.Num().Int(), actionEntryNonAssocError)
			}
		}
		return
	}
	tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(prod))
}

// resolveConflict implements the four-branch precedence rule from
// spec.md §4.4:
//  1. either side has no declared precedence: shift, with the conflict
//     still recorded as a warning.
//  2. the shifted terminal has higher precedence: shift.
//  3. the reducing production has higher precedence: reduce.
//  4. equal precedence: left-assoc reduces, right-assoc shifts, and
//     nonassoc is a hard syntax error.
func (b *tableBuilder) resolveConflict(sym symbolNum, prod productionNum) (ActionType, conflictResolutionMethod) {
	symPrec := b.precAndAssoc.terminalPrecedence(sym)
	prodPrec := b.precAndAssoc.productionPredence(prod)
	if symPrec == precNil || prodPrec == precNil {
		return ActionTypeShift, ResolvedByShift
	}
	if symPrec > prodPrec {
		return ActionTypeShift, ResolvedByPrec
	}
	if symPrec < prodPrec {
		return ActionTypeReduce, ResolvedByPrec
	}

	switch b.precAndAssoc.productionAssociativity(prod) {
	case assocTypeLeft:
		return ActionTypeReduce, ResolvedByAssoc
	case assocTypeRight:
		return ActionTypeShift, ResolvedByAssoc
	default:
		return ActionTypeError, ResolvedByAssoc
	}
}

// applyDefaultedStates compacts every state that has no shift cell and
// whose reduce cells all name the same production into a single
// defaultReduce fallback, clearing the now-redundant table cells.
func applyDefaultedStates(tab *ParsingTable) {
	for s := 0; s < tab.stateCount; s++ {
		var only productionNum
		mixed := false
		count := 0
		for c := 0; c < tab.terminalCount; c++ {
			act := tab.readAction(s, c)
			if act.isEmpty() || act == actionEntryNonAssocError {
				continue
			}
			ty, _, p := act.describe()
			if ty != ActionTypeReduce {
				mixed = true
				break
			}
			if count == 0 {
				only = p
			} else if p != only {
				mixed = true
				break
			}
			count++
		}
		if mixed || count == 0 {
			continue
		}

		tab.defaultReduce[s] = only
		for c := 0; c < tab.terminalCount; c++ {
			act := tab.readAction(s, c)
			if act.isEmpty() || act == actionEntryNonAssocError {
				continue
			}
			ty, _, p := act.describe()
			if ty == ActionTypeReduce && p == only {
				tab.writeAction(s, c, actionEntryEmpty)
			}
		}
	}
}
