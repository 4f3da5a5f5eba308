package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ply",
	Short: "Debug and demo harness for grammars built with the ply packages",
	Long: `ply is a demo/debug harness over Go-source-declared example
grammars. It does not parse a textual grammar DSL: a grammar is Go code
that calls grammar.NewGrammar, the way the calculator and nonassoc
examples in this repository do.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
