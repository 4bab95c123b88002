package handler

import (
	"github.com/dmitrymomot/chainmux/core/pattern"
)

// Source tells the resolver where a parameter value comes from.
type Source uint8

const (
	SourcePath Source = iota
	SourceQuery
	SourceHeader
	SourceCookie
	SourceBody
	SourceSession
	SourceSessionID
)

func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceQuery:
		return "query"
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	case SourceBody:
		return "body"
	case SourceSession:
		return "session"
	case SourceSessionID:
		return "session-id"
	default:
		return "unknown"
	}
}

// Param declares one argument of an entry.
type Param struct {
	Name   string
	Source Source
	Type   pattern.Type
	// Regex overrides the type's default path validation.
	Regex string
	// New returns a pointer the body is decoded into. When nil the body is
	// bound as a string for text payloads or a map for structured ones.
	New func() any
}

// WithRegex returns a copy of p validated by expr instead of the type default.
func (p Param) WithRegex(expr string) Param {
	p.Regex = expr
	return p
}

// Path declares a path parameter.
func Path(name string, typ pattern.Type) Param {
	return Param{Name: name, Source: SourcePath, Type: typ}
}

// Query declares a query parameter.
func Query(name string, typ pattern.Type) Param {
	return Param{Name: name, Source: SourceQuery, Type: typ}
}

// Header declares a request header parameter.
func Header(name string) Param {
	return Param{Name: name, Source: SourceHeader}
}

// Cookie declares a request cookie parameter.
func Cookie(name string) Param {
	return Param{Name: name, Source: SourceCookie}
}

// Body declares the request body. newFn may be nil.
func Body(name string, newFn func() any) Param {
	return Param{Name: name, Source: SourceBody, New: newFn}
}

// Session declares the request session, started on first use.
func Session(name string) Param {
	return Param{Name: name, Source: SourceSession}
}

// SessionID declares the raw session id cookie value.
func SessionID(name string) Param {
	return Param{Name: name, Source: SourceSessionID}
}
