package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModuleNotFound is returned for imports naming a module that is not installed
	ErrModuleNotFound = errors.New("module not found")

	// ErrFileNotFound is returned when no stylesheet exists at an addressed path
	ErrFileNotFound = errors.New("stylesheet not found")

	// ErrAmbiguousImport is returned when several files could satisfy one import
	ErrAmbiguousImport = errors.New("ambiguous import")

	// ErrUndeclaredDependency is returned in strict mode when a module imports
	// a module it does not depend on
	ErrUndeclaredDependency = errors.New("undeclared module dependency")

	// ErrInvalidRequest is returned for nil or empty requests
	ErrInvalidRequest = errors.New("invalid import request")
)

// ResolutionError is returned when no stage could resolve a request. Notes
// holds the reason each declining stage gave, so errors.Is sees through it.
type ResolutionError struct {
	URI   string
	Prev  string
	Notes []error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not resolve %q", e.URI)
	if e.Prev != "" {
		fmt.Fprintf(&b, " from %s", e.Prev)
	}
	if len(e.Notes) > 0 {
		notes := make([]string, len(e.Notes))
		for i, n := range e.Notes {
			notes[i] = n.Error()
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(notes, "; "))
	}
	return b.String()
}

// Unwrap exposes the notes to errors.Is and errors.As
func (e *ResolutionError) Unwrap() []error {
	return e.Notes
}
