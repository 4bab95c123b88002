package pattern

import "errors"

var (
	ErrUnresolvedParam = errors.New("path placeholder has no resolvable parameter")
	ErrAdjacentParams  = errors.New("adjacent path placeholders are ambiguous")
	ErrDuplicateParam  = errors.New("duplicate path parameter")
	ErrInvalidRegexp   = errors.New("invalid path parameter regexp")
	ErrUnclosedParam   = errors.New("malformed path placeholder")
)
