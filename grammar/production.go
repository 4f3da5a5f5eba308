package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type productionID [32]byte

func (id productionID) String() string {
	return hex.EncodeToString(id[:])
}

func genProductionID(lhs symbol, rhs []symbol) productionID {
	seq := []byte{byte(lhs >> 8), byte(lhs & 0x00ff)}
	for _, sym := range rhs {
		seq = append(seq, byte(sym>>8), byte(sym&0x00ff))
	}
	return productionID(sha256.Sum256(seq))
}

type productionNum uint16

const (
	productionNumNil   = productionNum(0)
	productionNumStart = productionNum(1)
	productionNumMin   = productionNum(2)
)

func (n productionNum) Int() int {
	return int(n)
}

// Action is the user-supplied reduction callback for a production. args
// gives positional/by-name access to the values of the symbols on the RHS
// (spec.md's YaccProduction view); the returned value becomes the value of
// the LHS non-terminal on the parse stack.
type Action func(args *Args) (interface{}, error)

// production is the normalized representation of a single grammar rule.
type production struct {
	id     productionID
	num    productionNum
	lhs    symbol
	rhs    []symbol
	rhsLen int

	// names holds the per-RHS-symbol name used for Args.Named lookups. A
	// "" entry means "no declared name for this position" (positional
	// access still works). When the same name is used more than once on
	// the RHS, Args.Named disambiguates with 0,1,2... suffixes, matching
	// spec.md §3's "YaccProduction" convention.
	names []string

	// prec is an explicit precedence/associativity override for this
	// production (the %prec-equivalent of spec.md §4.1). nil means "no
	// override" — precedence is then inherited from the rightmost
	// terminal of the RHS, computed by precedenceBuilder.build.
	prec *precOverride

	action Action
}

func newProduction(lhs symbol, rhs []symbol, names []string, action Action) (*production, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &production{
		id:     genProductionID(lhs, rhs),
		lhs:    lhs,
		rhs:    rhs,
		rhsLen: len(rhs),
		names:  names,
		action: action,
	}, nil
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

// nameIndex builds the name -> index table used by Args.Named, applying
// the left-to-right 0,1,2... disambiguation spec.md §3 describes for
// repeated symbol names.
func (p *production) nameIndex() map[string]int {
	idx := map[string]int{}
	counts := map[string]int{}
	dup := map[string]bool{}
	for _, name := range p.names {
		if name == "" {
			continue
		}
		if counts[name] > 0 {
			dup[name] = true
		}
		counts[name]++
	}
	seen := map[string]int{}
	for i, name := range p.names {
		if name == "" {
			continue
		}
		key := name
		if dup[name] {
			key = fmt.Sprintf("%s%d", name, seen[name])
		}
		seen[name]++
		idx[key] = i
	}
	return idx
}

type productionSet struct {
	lhs2Prods map[symbol][]*production
	id2Prod   map[productionID]*production
	byNum     map[productionNum]*production
	num       productionNum
}

func newProductionSet() *productionSet {
	return &productionSet{
		lhs2Prods: map[symbol][]*production{},
		id2Prod:   map[productionID]*production{},
		byNum:     map[productionNum]*production{},
		num:       productionNumMin,
	}
}

// append registers prod, assigning it a production number, unless an
// identical production (by structural hash) was already registered.
func (ps *productionSet) append(prod *production) bool {
	if _, ok := ps.id2Prod[prod.id]; ok {
		return false
	}

	if prod.lhs.IsStart() {
		prod.num = productionNumStart
	} else {
		prod.num = ps.num
		ps.num++
	}

	ps.lhs2Prods[prod.lhs] = append(ps.lhs2Prods[prod.lhs], prod)
	ps.id2Prod[prod.id] = prod
	ps.byNum[prod.num] = prod

	return true
}

func (ps *productionSet) findByID(id productionID) (*production, bool) {
	prod, ok := ps.id2Prod[id]
	return prod, ok
}

func (ps *productionSet) findByNum(num productionNum) (*production, bool) {
	prod, ok := ps.byNum[num]
	return prod, ok
}

func (ps *productionSet) findByLHS(lhs symbol) ([]*production, bool) {
	if lhs.IsNil() {
		return nil, false
	}
	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

func (ps *productionSet) getAllProductions() map[productionID]*production {
	return ps.id2Prod
}
