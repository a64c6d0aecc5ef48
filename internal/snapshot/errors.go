package snapshot

import (
	"errors"
	"strings"
)

// Error is the yoinkc error domain type.
//
// Errors coming from yoinkc components should be inspectable as
// ([errors.As]) an *Error at some point in the error chain.
//
// Components should construct an Error at the system boundary (reading
// the host filesystem, invoking an adapter, calling through the
// privilege bridge) and intermediate layers should wrap with
// [fmt.Errorf] and a "%w" verb rather than boxing another Error around
// it.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrConflict, ErrInternal, ErrInvalid, ErrPrecondition, ErrTransient:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is] by comparing error kind. Callers should compare
// against a declared [ErrorKind], not a specific *Error value.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents the class of an error for the dispatch policy in
// spec §7 (fatal vs. warning).
//
// If unsure which kind applies, use ErrInternal.
type ErrorKind string

var (
	ErrConflict     = ErrorKind("conflict")     // e.g. residual secret found during push
	ErrInternal     = ErrorKind("internal")     // non-specific internal error
	ErrInvalid      = ErrorKind("invalid")      // malformed input, e.g. unreadable snapshot file
	ErrPrecondition = ErrorKind("precondition") // unmet precondition, e.g. privilege probe failure
	ErrTransient    = ErrorKind("transient")    // bridge call timed out, may succeed on retry
)

// Error implements error.
func (k ErrorKind) Error() string {
	return string(k)
}
