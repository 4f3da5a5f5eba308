// Package error formats an error with the offending source line, the way
// a compiler diagnostic points at the line it failed on, so cmd/ply can
// report a parser.SyntaxError against the file it came from instead of
// just printing the bare message.
package error

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SourceError decorates Cause with the contents of the line it occurred
// on, read from FilePath when one is set.
type SourceError struct {
	Cause      error
	FilePath   string
	SourceName string
	Row        int
}

func (e *SourceError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		fmt.Fprintf(&b, "%v: ", e.Row)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}
