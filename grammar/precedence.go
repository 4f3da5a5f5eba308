package grammar

type assocType string

const (
	assocTypeNil   = assocType("")
	assocTypeLeft  = assocType("left")
	assocTypeRight = assocType("right")
	assocTypeNon   = assocType("nonassoc")
)

const (
	precNil = 0
	precMin = 1
)

// precAndAssoc holds the resolved precedence/associativity of every
// terminal symbol and every production. Productions inherit precedence
// and associativity from their right-most terminal unless overridden by
// an explicit %prec-equivalent (production.prec), matching the rule
// spec.md §4.1 and §4.4 describe and yacc/SLY's `p.set_precedence` +
// "rightmost terminal" fallback (original_source/sly/yacc.py).
type precAndAssoc struct {
	termPrec  map[symbolNum]int
	termAssoc map[symbolNum]assocType

	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]assocType
}

func (pa *precAndAssoc) terminalPrecedence(sym symbolNum) int {
	prec, ok := pa.termPrec[sym]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) terminalAssociativity(sym symbolNum) assocType {
	assoc, ok := pa.termAssoc[sym]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

func (pa *precAndAssoc) productionPredence(prod productionNum) int {
	prec, ok := pa.prodPrec[prod]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) productionAssociativity(prod productionNum) assocType {
	assoc, ok := pa.prodAssoc[prod]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

// precOverride is an explicit %prec-equivalent override attached to a
// single production (spec.md §4.1: "a production may declare an explicit
// precedence terminal, overriding the rightmost-terminal default").
type precOverride struct {
	level int
	assoc assocType
}

// precedenceBuilder accumulates DeclarePrecedence calls made against a
// Grammar. Declaration order IS precedence level, lowest first, mirroring
// both the teacher's `%left`/`%right` directive list and SLY's
// `precedence` tuple list (original_source/sly/yacc.py, set_precedence).
// Levels are assigned immediately so AddProduction's explicit %prec
// override can look a terminal's level up before Compile runs.
type precedenceBuilder struct {
	termPrec  map[symbolNum]int
	termAssoc map[symbolNum]assocType
	nextLevel int
}

func newPrecedenceBuilder() *precedenceBuilder {
	return &precedenceBuilder{
		termPrec:  map[symbolNum]int{},
		termAssoc: map[symbolNum]assocType{},
		nextLevel: precMin,
	}
}

func (b *precedenceBuilder) declare(assoc assocType, terms []symbol) {
	level := b.nextLevel
	b.nextLevel++
	for _, sym := range terms {
		b.termPrec[sym.Num()] = level
		b.termAssoc[sym.Num()] = assoc
	}
}

// levelOf looks up the level and associativity a terminal was given by a
// prior declare call, for use as a production's explicit %prec override.
func (b *precedenceBuilder) levelOf(sym symbol) (*precOverride, bool) {
	level, ok := b.termPrec[sym.Num()]
	if !ok {
		return nil, false
	}
	return &precOverride{level: level, assoc: b.termAssoc[sym.Num()]}, true
}

// build derives each production's precedence: an explicit override
// (production.prec) wins, otherwise the production inherits from the
// right-most terminal in its RHS, otherwise it has no precedence at all.
func (b *precedenceBuilder) build(prods *productionSet) *precAndAssoc {
	pa := &precAndAssoc{
		termPrec:  b.termPrec,
		termAssoc: b.termAssoc,
		prodPrec:  map[productionNum]int{},
		prodAssoc: map[productionNum]assocType{},
	}

	for _, prod := range prods.getAllProductions() {
		if prod.prec != nil {
			pa.prodPrec[prod.num] = prod.prec.level
			pa.prodAssoc[prod.num] = prod.prec.assoc
			continue
		}

		for i := prod.rhsLen - 1; i >= 0; i-- {
			sym := prod.rhs[i]
			if !sym.IsTerminal() {
				continue
			}
			if prec, ok := pa.termPrec[sym.Num()]; ok {
				pa.prodPrec[prod.num] = prec
				pa.prodAssoc[prod.num] = pa.termAssoc[sym.Num()]
			}
			break
		}
	}

	return pa
}
