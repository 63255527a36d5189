package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDirective is wrapped by every *DirectiveError.
	ErrMalformedDirective = errors.New("malformed directive")
	// ErrUnknownDirective marks a diagnostic for an unrecognized keyword.
	ErrUnknownDirective = errors.New("unknown directive")
	// ErrGroupCountFilter marks an alarm count filter given for a group; only channels carry one.
	ErrGroupCountFilter = errors.New("alarm count filter on a group")
)

// DirectiveError reports a recognized directive that could not be applied.
type DirectiveError struct {
	// Line is the 1-based line number of the directive.
	Line int
	// Text is the raw directive line.
	Text string
	// Keyword is the directive keyword.
	Keyword string
	// Reason explains what is wrong with the directive.
	Reason string
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	return fmt.Sprintf("line %d: %s %s: %s: %q", e.Line, ErrMalformedDirective, e.Keyword, e.Reason, e.Text)
}

// Unwrap exposes ErrMalformedDirective to errors.Is.
func (e *DirectiveError) Unwrap() error {
	return ErrMalformedDirective
}

// Diagnostic is a recoverable anomaly found while parsing.
type Diagnostic struct {
	// Line is the 1-based line number that caused the diagnostic.
	Line int
	// Text is the raw line.
	Text string
	// Err classifies the anomaly: ErrUnknownDirective, ErrGroupCountFilter or alarm.ErrDuplicateChild.
	Err error
}

// String formats the diagnostic for humans.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %v: %q", d.Line, d.Err, d.Text)
}
