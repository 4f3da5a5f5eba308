package grammar

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/sets/hashset"
)

// lr0Automaton is the canonical collection of LR(0) item sets (spec.md
// §4.2), identified by kernel-item-set identity (the state-equivalence
// invariant in spec.md §8: two states with identical kernels are the same
// state).
type lr0Automaton struct {
	initialState kernelID
	states       map[kernelID]*lrState
}

func genLR0Automaton(prods *productionSet, startSym symbol, errSym symbol) (*lr0Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}

	automaton := &lr0Automaton{
		states: map[kernelID]*lrState{},
	}

	currentState := stateNumInitial
	knownKernels := hashset.New()
	uncheckedKernels := []*kernel{}

	// Generate the initial kernel: { S' → ・S }.
	{
		startProds, _ := prods.findByLHS(startSym)
		initialItem, err := newLR0Item(startProds[0], 0)
		if err != nil {
			return nil, err
		}

		k, err := newKernel([]*lrItem{initialItem})
		if err != nil {
			return nil, err
		}

		automaton.initialState = k.id
		knownKernels.Add(k.id)
		uncheckedKernels = append(uncheckedKernels, k)
	}

	// Breadth-first enumeration of states; successor symbols are visited
	// in sorted order (see genNeighbourKernels) so state numbering is
	// deterministic across builds of the same grammar (spec.md §8's
	// "rebuilding tables ... is deterministic" round-trip property).
	for len(uncheckedKernels) > 0 {
		var nextUncheckedKernels []*kernel
		for _, k := range uncheckedKernels {
			state, neighbours, err := genStateAndNeighbourKernels(k, prods, errSym)
			if err != nil {
				return nil, err
			}
			state.num = currentState
			currentState = currentState.next()

			automaton.states[state.id] = state

			for _, nk := range neighbours {
				if knownKernels.Contains(nk.id) {
					continue
				}
				knownKernels.Add(nk.id)
				nextUncheckedKernels = append(nextUncheckedKernels, nk)
			}
		}
		uncheckedKernels = nextUncheckedKernels
	}

	return automaton, nil
}

func genStateAndNeighbourKernels(k *kernel, prods *productionSet, errSym symbol) (*lrState, []*kernel, error) {
	items, err := genLR0Closure(k, prods)
	if err != nil {
		return nil, nil, err
	}
	neighbours, err := genNeighbourKernels(items, prods)
	if err != nil {
		return nil, nil, err
	}

	next := map[symbol]kernelID{}
	var kernels []*kernel
	for _, n := range neighbours {
		next[n.symbol] = n.kernel.id
		kernels = append(kernels, n.kernel)
	}

	reducible := map[productionID]struct{}{}
	var emptyProdItems []*lrItem
	isErrorTrapper := false
	for _, item := range items {
		if item.dottedSymbol == errSym {
			isErrorTrapper = true
		}

		if item.reducible {
			reducible[item.prod] = struct{}{}

			prod, ok := prods.findByID(item.prod)
			if !ok {
				return nil, nil, fmt.Errorf("reducible production not found: %v", item.prod)
			}
			if prod.isEmpty() {
				emptyProdItems = append(emptyProdItems, item)
			}
		}
	}

	return &lrState{
		kernel:         k,
		next:           next,
		reducible:      reducible,
		emptyProdItems: emptyProdItems,
		isErrorTrapper: isErrorTrapper,
	}, kernels, nil
}

// genLR0Closure implements CLOSURE(I) from spec.md §4.2: repeatedly add
// ・γ items for every production of a non-terminal immediately right of a
// dot, until no more items can be added.
func genLR0Closure(k *kernel, prods *productionSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range k.items {
		items = append(items, item)
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		var nextUncheckedItems []*lrItem
		for _, item := range uncheckedItems {
			if item.dottedSymbol.IsTerminal() {
				continue
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				newItem, err := newLR0Item(prod, 0)
				if err != nil {
					return nil, err
				}
				if _, exist := knownItems[newItem.id]; exist {
					continue
				}
				items = append(items, newItem)
				knownItems[newItem.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, newItem)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items, nil
}

type neighbourKernel struct {
	symbol symbol
	kernel *kernel
}

// genNeighbourKernels implements GOTO(I, X) for every symbol X that
// appears immediately after a dot in I, in one pass over the closure.
func genNeighbourKernels(items []*lrItem, prods *productionSet) ([]*neighbourKernel, error) {
	kItemMap := map[symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() {
			continue
		}
		prod, ok := prods.findByID(item.prod)
		if !ok {
			return nil, fmt.Errorf("a production was not found: %v", item.prod)
		}
		kItem, err := newLR0Item(prod, item.dot+1)
		if err != nil {
			return nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	var nextSyms []symbol
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool {
		return nextSyms[i] < nextSyms[j]
	})

	var kernels []*neighbourKernel
	for _, sym := range nextSyms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}

	return kernels, nil
}
