package css

import "fmt"

//go:generate go tool go-enum --names --marshal

// Kind of sanitizer failure.
// ENUM(parse, processing)
type FailureKind int

// Error is returned when stylesheet or style value could not be sanitized.
// Either way caller is expected to render content without styling.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("css %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func parseError(err error) *Error {
	return &Error{Kind: FailureKindParse, Err: err}
}

func processingError(err error) *Error {
	return &Error{Kind: FailureKindProcessing, Err: err}
}
