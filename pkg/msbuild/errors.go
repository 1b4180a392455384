package msbuild

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound is returned when a project file cannot be opened.
	ErrProjectNotFound = errors.New("project file not found")

	// ErrInvalidProject is returned for malformed XML or a document whose
	// root element is not <Project>.
	ErrInvalidProject = errors.New("invalid project file")

	// ErrInvalidImport is returned when an Import's Project attribute is
	// missing or expands to nothing.
	ErrInvalidImport = errors.New("invalid import")

	// ErrImportNotFound is returned when a non-wildcard import names a file
	// that does not exist.
	ErrImportNotFound = errors.New("imported project not found")

	// ErrInvalidCondition is returned when a Condition attribute does not parse.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrUnsupportedExpression is returned for property functions, item
	// lists and metadata references the evaluator does not implement.
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// ResolveError records the file, and where known the line, at which
// evaluation failed.
type ResolveError struct {
	Op   string
	Path string
	Line int
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("msbuild: %s %s:%d: %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("msbuild: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func newError(op, path string, line int, sentinel error, format string, args ...any) *ResolveError {
	return &ResolveError{
		Op:   op,
		Path: path,
		Line: line,
		Err:  fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
