package mixture

import "fmt"

// SourceError indicates the input manifest could not be read or decoded:
// the file is missing or unreadable, or a line is not valid JSON.
type SourceError struct {
	Path string
	Line int // 1-based line number for decode failures, 0 otherwise
	Err  error
}

func (e *SourceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("source %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ValidationError indicates a record or a configuration value that breaks the
// input contract. The whole computation aborts; no partial result is produced.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Reason }
