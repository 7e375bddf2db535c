package search

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidPattern reports a target that does not compile as a pattern.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrEmptySelection and ErrEmptyTarget are precondition failures
	// checked before any analysis work.
	ErrEmptySelection = errors.New("empty selection")
	ErrEmptyTarget    = errors.New("empty target")
)

// Mode selects how a target string becomes a pattern.
type Mode int

const (
	// ModeRegex uses the target verbatim as a regular expression.
	ModeRegex Mode = iota
	// ModeLiteral matches the target text exactly.
	ModeLiteral
)

func (m Mode) String() string {
	switch m {
	case ModeRegex:
		return "regex"
	case ModeLiteral:
		return "literal"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// PatternError is returned when a target does not compile. It matches
// ErrInvalidPattern with errors.Is.
type PatternError struct {
	Target string
	Err    error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Target, e.Err)
}

func (e *PatternError) Unwrap() []error {
	return []error{ErrInvalidPattern, e.Err}
}

// Compile builds the case-insensitive pattern for target.
func Compile(target string, mode Mode) (*regexp.Regexp, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	expr := target
	if mode == ModeLiteral {
		expr = regexp.QuoteMeta(target)
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, &PatternError{Target: target, Err: err}
	}
	return re, nil
}
