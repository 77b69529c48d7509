package dwarf

import "errors"

// Error kinds from spec.md §7. Each is a sentinel so callers can match with
// errors.Is; the policy for what happens when one occurs lives in session.go
// and cu.go, not here.
var (
	ErrMalformedLength      = errors.New("malformed initial length")
	ErrUnknownForm          = errors.New("unknown form")
	ErrUnknownOpcode        = errors.New("unknown opcode")
	ErrTruncatedSection     = errors.New("truncated section")
	ErrUnresolvedReference  = errors.New("unresolved reference")
	ErrUnsupportedExpression = errors.New("unsupported expression")
	ErrUnknownType          = errors.New("unknown type")
	ErrNoLineInfo           = errors.New("no line info")
)
