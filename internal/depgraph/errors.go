package depgraph

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the graph text is empty or whitespace only.
var ErrEmptyInput = errors.New("empty DOT content")

// InputError reports a fatal problem with the analyzer's input. No partial
// report is produced when one is returned.
type InputError struct {
	Source string // file path, "stdin", or "" when unknown
	Err    error
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error (%s): %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// IsInputError reports whether err is, or wraps, an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
