package grammar

import (
	"fmt"
	"io"
	"sort"

	symtab "github.com/ply-toolkit/ply/grammar/symbol"
	"github.com/pterm/pterm"
)

// WriteDescription renders a human-readable report of cg's terminals,
// productions, states, and conflicts, playing the same role as yacc's
// .output file or vartan describe's grammar-description dump
// (cmd/vartan/describe.go), but rendered directly from the compiled
// grammar with pterm instead of round-tripping through a JSON
// description and a text/template.
func (cg *CompiledGrammar) WriteDescription(w io.Writer) error {
	reader := cg.symbolTable.Reader()

	fmt.Fprint(w, pterm.DefaultSection.Sprintln("Conflicts"))
	fmt.Fprint(w, cg.describeConflicts(reader))

	fmt.Fprint(w, pterm.DefaultSection.Sprintln("Terminals"))
	fmt.Fprint(w, cg.describeTerminals(reader))

	fmt.Fprint(w, pterm.DefaultSection.Sprintln("Productions"))
	fmt.Fprint(w, cg.describeProductions(reader))

	fmt.Fprint(w, pterm.DefaultSection.Sprintln("States"))
	for _, state := range cg.sortedStates() {
		fmt.Fprint(w, pterm.DefaultSection.WithLevel(2).Sprintln(fmt.Sprintf("State %v", state.num.Int())))
		fmt.Fprint(w, cg.describeState(reader, state))
	}

	return nil
}

func (cg *CompiledGrammar) sortedStates() []*lrState {
	states := make([]*lrState, 0, len(cg.automaton.states))
	for _, s := range cg.automaton.states {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].num < states[j].num })
	return states
}

func termName(reader *symtab.Reader, sym symbol) string {
	name, _ := reader.ToText(sym)
	return name
}

func (cg *CompiledGrammar) describeConflicts(reader *symtab.Reader) string {
	if len(cg.conflicts) == 0 {
		return "No conflict was detected.\n"
	}

	var items []pterm.BulletListItem
	for _, c := range cg.conflicts {
		switch c := c.(type) {
		case *shiftReduceConflict:
			items = append(items, pterm.BulletListItem{Level: 0, Text: fmt.Sprintf(
				"state %v: shift/reduce conflict on %v resolved by %v", c.state.Int(), termName(reader, c.sym), c.resolvedBy)})
		case *reduceReduceConflict:
			items = append(items, pterm.BulletListItem{Level: 0, Text: fmt.Sprintf(
				"state %v: reduce/reduce conflict (%v, %v) on %v resolved by %v", c.state.Int(), c.prodNum1, c.prodNum2, termName(reader, c.sym), c.resolvedBy)})
		}
	}
	s, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return ""
	}
	return s
}

func (cg *CompiledGrammar) describeTerminals(reader *symtab.Reader) string {
	var items []pterm.BulletListItem
	for _, sym := range reader.TerminalSymbols() {
		name, _ := reader.ToText(sym)
		num := sym.Num().Int()
		prec := cg.precAndAssoc.terminalPrecedence(sym.Num())
		assoc := cg.precAndAssoc.terminalAssociativity(sym.Num())
		text := fmt.Sprintf("%4v %v", num, name)
		if prec != precNil {
			text += fmt.Sprintf("  prec=%v assoc=%v", prec, assoc)
		}
		items = append(items, pterm.BulletListItem{Level: 0, Text: text})
	}
	if len(items) == 0 {
		return ""
	}
	s, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return ""
	}
	return s
}

func (cg *CompiledGrammar) describeProductions(reader *symtab.Reader) string {
	var items []pterm.BulletListItem
	for _, prod := range cg.productionSet.getAllProductions() {
		items = append(items, pterm.BulletListItem{Level: 0, Text: describeProduction(reader, prod)})
	}
	if len(items) == 0 {
		return ""
	}
	s, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return ""
	}
	return s
}

func describeProduction(reader *symtab.Reader, prod *production) string {
	lhsName, _ := reader.ToText(prod.lhs)
	body := ""
	if len(prod.rhs) == 0 {
		body = "ε"
	} else {
		for i, sym := range prod.rhs {
			if i > 0 {
				body += " "
			}
			name, _ := reader.ToText(sym)
			body += name
		}
	}
	return fmt.Sprintf("%4v %v → %v", prod.num, lhsName, body)
}

func describeItem(reader *symtab.Reader, prods *productionSet, item *lrItem) string {
	prod, ok := prods.findByID(item.prod)
	if !ok {
		return "?"
	}
	lhsName, _ := reader.ToText(prod.lhs)
	body := fmt.Sprintf("%v →", lhsName)
	for i, sym := range prod.rhs {
		if i == item.dot {
			body += " ・"
		}
		name, _ := reader.ToText(sym)
		body += " " + name
	}
	if item.dot >= len(prod.rhs) {
		body += " ・"
	}
	return fmt.Sprintf("%4v %v", prod.num, body)
}

func (cg *CompiledGrammar) describeState(reader *symtab.Reader, state *lrState) string {
	var items []pterm.BulletListItem

	for _, item := range state.items {
		items = append(items, pterm.BulletListItem{Level: 0, Text: describeItem(reader, cg.productionSet, item)})
	}

	var shifts, gotos []string
	syms := make([]symbol, 0, len(state.next))
	for sym := range state.next {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Num() < syms[j].Num() })
	for _, sym := range syms {
		next := cg.automaton.states[state.next[sym]]
		name, _ := reader.ToText(sym)
		if sym.IsTerminal() {
			shifts = append(shifts, fmt.Sprintf("shift  %4v on %v", next.num.Int(), name))
		} else {
			gotos = append(gotos, fmt.Sprintf("goto   %4v on %v", next.num.Int(), name))
		}
	}
	for _, s := range shifts {
		items = append(items, pterm.BulletListItem{Level: 0, Text: s})
	}

	for prodID := range state.reducible {
		item := findReducibleItem(state, prodID)
		if item == nil {
			continue
		}
		prod, ok := cg.productionSet.findByID(prodID)
		if !ok {
			continue
		}
		var las []string
		for sym := range item.lookAhead.symbols {
			las = append(las, termName(reader, sym))
		}
		sort.Strings(las)
		items = append(items, pterm.BulletListItem{Level: 0, Text: fmt.Sprintf("reduce %4v on %v", prod.num, las)})
	}
	for _, g := range gotos {
		items = append(items, pterm.BulletListItem{Level: 0, Text: g})
	}

	if len(items) == 0 {
		return ""
	}
	s, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return ""
	}
	return s
}
