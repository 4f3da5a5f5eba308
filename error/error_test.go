package error

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSourceError_Error(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.calc")
	if err := os.WriteFile(path, []byte("1 +\n+ 2\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cause := errors.New("unexpected token")
	e := &SourceError{
		Cause:      cause,
		FilePath:   path,
		SourceName: path,
		Row:        2,
	}

	got := e.Error()
	want := path + ": 2: error: unexpected token\n    + 2"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Error("errors.Is should unwrap to the cause")
	}
}

func TestSourceError_NoFilePathOmitsSourceLine(t *testing.T) {
	e := &SourceError{Cause: errors.New("boom"), Row: 3}
	got := e.Error()
	want := "3: error: boom"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
