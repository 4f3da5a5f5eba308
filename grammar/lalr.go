package grammar

import (
	"fmt"
	"math"

	"github.com/emirpasic/gods/stacks/arraystack"
)

type lalr1Automaton struct {
	*lr0Automaton
}

// transition identifies a GOTO edge (state, symbol) whose target state is
// defined; the DeRemer-Pennello relations (spec.md §4.3) are all defined
// over the subset of these edges where symbol is a non-terminal.
type transition struct {
	state kernelID
	sym   symbol
}

// genLALR1Automaton computes LALR(1) look-ahead sets for lr0 using the
// DeRemer-Pennello digraph algorithm (spec.md §4.3): DR is computed
// directly per non-terminal transition, the read sets are the
// SCC-contracted traversal (digraph) of the READS relation seeded with DR,
// the follow sets are the digraph of the INCLUDES relation seeded with the
// read sets, and LOOKBACK connects each reducible item back to the
// transitions whose follow sets supply its look-ahead.
func genLALR1Automaton(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (*lalr1Automaton, error) {
	transitions := nonTerminalTransitions(lr0)

	dr := computeDR(lr0, transitions)
	// The augmented production S'→start is followed by $end, so $end is
	// read right after the start symbol's transition out of the initial
	// state.
	for _, prod := range prods.getAllProductions() {
		if prod.lhs.IsStart() {
			if set, ok := dr[transition{state: lr0.initialState, sym: prod.rhs[0]}]; ok {
				set[symbolEOF] = struct{}{}
			}
			break
		}
	}

	reads := computeReadsRelation(lr0, transitions, first)
	readSets := digraph(transitions, reads, dr)

	includes, lookback, err := computeIncludesAndLookback(lr0, prods, first)
	if err != nil {
		return nil, err
	}
	includeSets := digraph(transitions, includes, readSets)

	if err := setAcceptLookAhead(lr0, prods); err != nil {
		return nil, err
	}

	for _, state := range lr0.states {
		for prodID := range state.reducible {
			prod, ok := prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", prodID)
			}
			if prod.lhs.IsStart() {
				// The augmented production's accept item always gets
				// {$end} directly (setAcceptLookAhead), never a
				// digraph-computed lookahead.
				continue
			}

			item := findReducibleItem(state, prodID)
			if item == nil {
				return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.id, prodID)
			}

			la := map[symbol]struct{}{}
			for _, t := range lookback[lookbackKey{state: state.id, prod: prodID}] {
				for s := range includeSets[t] {
					la[s] = struct{}{}
				}
			}
			item.lookAhead.symbols = la
		}
	}

	return &lalr1Automaton{lr0Automaton: lr0}, nil
}

// setAcceptLookAhead attaches {$end} directly to the augmented
// production's reducible item S'→start·, bypassing the digraph
// entirely: this is the standard fixed point of LALR(1) construction,
// since the accept item's lookahead is always exactly $end and never
// derived via INCLUDES/LOOKBACK. That item lives in the state reached
// by shifting the grammar's real start symbol out of the initial
// state, not in the initial state itself (whose only item, S'→·start,
// is never reducible).
func setAcceptLookAhead(lr0 *lr0Automaton, prods *productionSet) error {
	var augProd *production
	for _, prod := range prods.getAllProductions() {
		if prod.lhs.IsStart() {
			augProd = prod
			break
		}
	}
	if augProd == nil {
		return fmt.Errorf("augmented start production not found")
	}

	iniState := lr0.states[lr0.initialState]
	nextID, defined := iniState.next[augProd.rhs[0]]
	if !defined {
		return fmt.Errorf("no transition on the start symbol from the initial state")
	}
	sAccept := lr0.states[nextID]

	item := findReducibleItem(sAccept, augProd.id)
	if item == nil {
		return fmt.Errorf("accept item not found in state %v", sAccept.id)
	}
	item.lookAhead.symbols = map[symbol]struct{}{symbolEOF: {}}
	return nil
}

func findReducibleItem(state *lrState, prodID productionID) *lrItem {
	for _, item := range state.items {
		if item.reducible && item.prod == prodID {
			return item
		}
	}
	for _, item := range state.emptyProdItems {
		if item.reducible && item.prod == prodID {
			return item
		}
	}
	return nil
}

func nonTerminalTransitions(lr0 *lr0Automaton) []transition {
	var ts []transition
	for _, state := range lr0.states {
		for sym := range state.next {
			if sym.IsTerminal() {
				continue
			}
			ts = append(ts, transition{state: state.id, sym: sym})
		}
	}
	return ts
}

// computeDR computes DR(p,A): the terminals a shift can consume
// immediately after taking the transition (p,A).
func computeDR(lr0 *lr0Automaton, transitions []transition) map[transition]map[symbol]struct{} {
	dr := map[transition]map[symbol]struct{}{}
	for _, t := range transitions {
		q := lr0.states[lr0.states[t.state].next[t.sym]]
		set := map[symbol]struct{}{}
		for sym := range q.next {
			if sym.IsTerminal() {
				set[sym] = struct{}{}
			}
		}
		dr[t] = set
	}
	return dr
}

// computeReadsRelation builds the "reads" edges: (p,A) reads (q,C) iff
// q = GOTO(p,A) and C is a nullable non-terminal with GOTO(q,C) defined.
func computeReadsRelation(lr0 *lr0Automaton, transitions []transition, first *firstSet) map[transition][]transition {
	rel := map[transition][]transition{}
	for _, t := range transitions {
		q := lr0.states[lr0.states[t.state].next[t.sym]]
		for sym := range q.next {
			if sym.IsTerminal() {
				continue
			}
			if !isNullableSymbol(sym, first) {
				continue
			}
			rel[t] = append(rel[t], transition{state: q.id, sym: sym})
		}
	}
	return rel
}

type lookbackKey struct {
	state kernelID
	prod  productionID
}

// computeIncludesAndLookback walks every (state, production) pair forward
// along the production's RHS to derive the "includes" relation and the
// "lookback" pairs, following the DeRemer-Pennello definitions:
//
//	(p,A) includes (p',B)   when B → βAγ, A = X_i, p = GOTO*(p', β),
//	                        and γ = X_i+1..Xn is nullable — i.e.
//	                        Follow(p,A) inherits from Follow(p',B). The
//	                        map is keyed by the consumer (p,A) with the
//	                        dependency (p',B) as its value, the same
//	                        orientation computeReadsRelation's rel[t]
//	                        uses, since digraph walks rel[x] to pull in
//	                        each y's contribution to x.
//	(q,B→ω) lookback (s,B)  when GOTO*(s, ω) = q.
func computeIncludesAndLookback(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (map[transition][]transition, map[lookbackKey][]transition, error) {
	includes := map[transition][]transition{}
	lookback := map[lookbackKey][]transition{}

	for _, prod := range prods.getAllProductions() {
		if prod.lhs.IsStart() {
			continue
		}
		for _, s := range lr0.states {
			cur := s
			ok := true
			for i, sym := range prod.rhs {
				next, defined := cur.next[sym]
				if !defined {
					ok = false
					break
				}
				if !sym.IsTerminal() && isNullableSuffix(prod.rhs[i+1:], first) {
					key := transition{state: cur.id, sym: sym}
					includes[key] = append(includes[key], transition{state: s.id, sym: prod.lhs})
				}
				cur = lr0.states[next]
			}
			if !ok {
				continue
			}
			key := lookbackKey{state: cur.id, prod: prod.id}
			lookback[key] = append(lookback[key], transition{state: s.id, sym: prod.lhs})
		}
	}

	return includes, lookback, nil
}

func isNullableSymbol(sym symbol, first *firstSet) bool {
	if sym.IsTerminal() {
		return false
	}
	e := first.findBySymbol(sym)
	return e != nil && e.empty
}

func isNullableSuffix(syms []symbol, first *firstSet) bool {
	for _, sym := range syms {
		if !isNullableSymbol(sym, first) {
			return false
		}
	}
	return true
}

const digraphInfinity = math.MaxInt32

// digraph computes, for every node in nodes, F(x) = base(x) ∪ ⋃_{x rel y} F(y)
// using the linear-time SCC-contraction traversal from DeRemer & Pennello,
// "Efficient Computation of LALR(1) Look-Ahead Sets" (1982).
func digraph(nodes []transition, rel map[transition][]transition, base map[transition]map[symbol]struct{}) map[transition]map[symbol]struct{} {
	n := map[transition]int{}
	f := map[transition]map[symbol]struct{}{}
	stack := arraystack.New()

	var traverse func(x transition)
	traverse = func(x transition) {
		stack.Push(x)
		d := stack.Size()
		n[x] = d

		fx := map[symbol]struct{}{}
		for sym := range base[x] {
			fx[sym] = struct{}{}
		}
		f[x] = fx

		for _, y := range rel[x] {
			if n[y] == 0 {
				traverse(y)
			}
			if n[y] < n[x] {
				n[x] = n[y]
			}
			for sym := range f[y] {
				fx[sym] = struct{}{}
			}
		}

		if n[x] == d {
			for {
				top, _ := stack.Pop()
				y := top.(transition)
				n[y] = digraphInfinity
				f[y] = fx
				if y == x {
					break
				}
			}
		}
	}

	for _, x := range nodes {
		if n[x] == 0 {
			traverse(x)
		}
	}

	return f
}
