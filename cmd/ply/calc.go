package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ply-toolkit/ply/examples/calculator"
	verr "github.com/ply-toolkit/ply/error"
	"github.com/ply-toolkit/ply/grammar"
	"github.com/ply-toolkit/ply/parser"
)

var calcFlags = struct {
	file *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "calc [expression]",
		Short:   "Evaluate an arithmetic expression with the bundled calculator grammar",
		Example: "  ply calc \"3 + 5 * (10 - 20)\"",
		Args:    cobra.ArbitraryArgs,
		RunE:    runCalc,
	}
	calcFlags.file = cmd.Flags().StringP("file", "f", "", "read one expression per line from a file instead of stdin (ignored when an expression is given as arguments)")
	rootCmd.AddCommand(cmd)
}

func runCalc(cmd *cobra.Command, args []string) error {
	cg, err := calculator.New()
	if err != nil {
		return fmt.Errorf("failed to compile the calculator grammar: %w", err)
	}

	if len(args) > 0 {
		return evalAndPrint(cg, strings.Join(args, " "))
	}

	if *calcFlags.file != "" {
		return evalFile(cg, *calcFlags.file)
	}

	pterm.Info.Println("reading expressions from stdin, one per line")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := evalAndPrint(cg, line); err != nil {
			pterm.Error.Println(err)
		}
	}
	return scanner.Err()
}

// evalFile evaluates every non-blank line of path, wrapping a syntax
// error in a verr.SourceError so the report points at the offending
// line in the file it came from.
func evalFile(cg *grammar.CompiledGrammar, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	row := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		row++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := evalAndPrint(cg, line); err != nil {
			var synErr *parser.SyntaxError
			if errors.As(err, &synErr) {
				err = &verr.SourceError{
					Cause:      err,
					FilePath:   path,
					SourceName: path,
					Row:        row,
				}
			}
			pterm.Error.Println(err)
		}
	}
	return scanner.Err()
}

func evalAndPrint(cg *grammar.CompiledGrammar, src string) error {
	result, err := calculator.Eval(cg, src)
	if err != nil {
		return fmt.Errorf("%v: %w", src, err)
	}
	pterm.Success.Println(fmt.Sprintf("%v = %v", src, result))
	return nil
}
