package grammar

import (
	"github.com/ply-toolkit/ply/compressor"
)

// CompressedTable is a row-displacement-packed rendering of a
// ParsingTable's ACTION and GOTO arrays (spec.md §4.4's table needs
// packing "once table sizes ... dominate construction time" grows large
// enough to matter), built with compressor.RowDisplacementTable.
type CompressedTable struct {
	Action *compressor.RowDisplacementTable
	GoTo   *compressor.RowDisplacementTable
}

// LookupAction and LookupGoTo replicate ParsingTable.getAction/getGoTo's raw cell semantics
// against the packed table, without the defaulted-states fallback (that
// optimization already sparsified the source table before compression).
func (c *CompressedTable) LookupAction(state, term int) (int, error) {
	return c.Action.Lookup(state, term)
}

func (c *CompressedTable) LookupGoTo(state, nonTerm int) (int, error) {
	return c.GoTo.Lookup(state, nonTerm)
}

// Compress packs t's ACTION and GOTO tables with row-displacement
// compression and returns the packed form.
func (t *ParsingTable) Compress() (*CompressedTable, error) {
	actionEntries := make([]int, len(t.actionTable))
	for i, e := range t.actionTable {
		actionEntries[i] = int(e)
	}
	origAction, err := compressor.NewOriginalTable(actionEntries, t.terminalCount)
	if err != nil {
		return nil, err
	}
	actionTab := compressor.NewRowDisplacementTable(int(actionEntryEmpty))
	if err := actionTab.Compress(origAction); err != nil {
		return nil, err
	}

	goToEntries := make([]int, len(t.goToTable))
	for i, e := range t.goToTable {
		goToEntries[i] = int(e)
	}
	origGoTo, err := compressor.NewOriginalTable(goToEntries, t.nonTerminalCount)
	if err != nil {
		return nil, err
	}
	goToTab := compressor.NewRowDisplacementTable(int(goToEntryEmpty))
	if err := goToTab.Compress(origGoTo); err != nil {
		return nil, err
	}

	return &CompressedTable{Action: actionTab, GoTo: goToTab}, nil
}

// Compress packs cg's underlying ACTION/GOTO tables; see
// ParsingTable.Compress.
func (cg *CompiledGrammar) Compress() (*CompressedTable, error) {
	return cg.table.Compress()
}
