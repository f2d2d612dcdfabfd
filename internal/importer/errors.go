package importer

import "fmt"

// ParseError wraps a failure to tokenize the uploaded file into rows and
// columns. It is fatal for the request and carries the original cause.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse file: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RowValidationError reports a single row that failed normalization. Row is
// 1-based over the data rows (the header does not count). Any row failure
// aborts the whole batch; no partial results are committed.
type RowValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *RowValidationError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %s", e.Row, e.Field, e.Reason)
}
