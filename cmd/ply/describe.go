package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ply-toolkit/ply/examples/calculator"
	"github.com/ply-toolkit/ply/examples/nonassoc"
	"github.com/ply-toolkit/ply/grammar"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe [grammar]",
		Short:   "Print a compiled grammar's states, productions, and conflicts",
		Example: "  ply describe calculator",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

var bundledGrammars = map[string]func() (*grammar.CompiledGrammar, error){
	"calculator": calculator.New,
	"nonassoc":   nonassoc.New,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	name := "calculator"
	if len(args) > 0 {
		name = args[0]
	}

	build, ok := bundledGrammars[name]
	if !ok {
		return fmt.Errorf("unknown bundled grammar %q (available: calculator, nonassoc)", name)
	}

	cg, err := build()
	if err != nil {
		return fmt.Errorf("failed to compile %v: %w", name, err)
	}

	pterm.DefaultHeader.
		WithFullWidth().
		Println(fmt.Sprintf("ply describe: %v", name))

	if warnings := cg.Warnings(); len(warnings) > 0 {
		var items []pterm.BulletListItem
		for _, w := range warnings {
			items = append(items, pterm.BulletListItem{Level: 0, Text: w.String()})
		}
		pterm.DefaultSection.Println("Warnings")
		pterm.DefaultBulletList.WithItems(items).Render()
	}

	return cg.WriteDescription(os.Stdout)
}
