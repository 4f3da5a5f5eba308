package grammar

import symtab "github.com/ply-toolkit/ply/grammar/symbol"

// symbol is a package-local alias for symtab.Symbol so the rest of this
// package can write the terse `symbol`/`symbolNil`/`symbolEOF` vocabulary
// the LR0/LALR algorithms are usually described in, while the type itself
// stays the single interned representation the grammar package exports at
// its public boundary as symtab.Symbol.
type symbol = symtab.Symbol

type symbolNum = symtab.Num

var (
	symbolNil = symtab.Nil
	symbolEOF = symtab.EOF
)

type symbolTable = symtab.Table
