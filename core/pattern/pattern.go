package pattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Type is the declared type of a path parameter. It selects the default
// validation regex when a parameter does not carry its own.
type Type uint8

const (
	String Type = iota
	Int
	Float
	Bool
)

// Default validation expressions per parameter type.
const (
	IntRegex    = `^[-+]?[0-9]+$`
	FloatRegex  = `^[-+]?[0-9]+\.[0-9]+$`
	BoolRegex   = `^(0|1|no?|y(es)?|false|true)$`
	StringRegex = `^[^/]+$`
)

// String returns the lower-case name of the type.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// DefaultRegex returns the validation expression used for t when a
// parameter does not override it. Unknown types return an empty string.
func (t Type) DefaultRegex() string {
	switch t {
	case String:
		return StringRegex
	case Int:
		return IntRegex
	case Float:
		return FloatRegex
	case Bool:
		return BoolRegex
	default:
		return ""
	}
}

// Param declares a path parameter referenced by a template placeholder.
type Param struct {
	Name  string
	Type  Type
	Regex string // optional override; always anchored at both ends
}

// Matcher reports whether a request path matches a compiled template and
// returns the decoded parameter values keyed by name.
type Matcher func(path string) (bool, map[string]string)

// Template is a compiled path template.
type Template struct {
	raw      string
	literals []string // always len(names)+1
	names    []string
	regexes  []*regexp.Regexp
}

// Split breaks a template into its literal segments and placeholder names.
// The returned literals always have one more element than names.
func Split(template string) (literals, names []string, err error) {
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, nil, fmt.Errorf("%w: stray '}' in %q", ErrUnclosedParam, template)
			}
			literals = append(literals, rest)
			return literals, names, nil
		}

		literal := rest[:open]
		if strings.IndexByte(literal, '}') >= 0 {
			return nil, nil, fmt.Errorf("%w: stray '}' in %q", ErrUnclosedParam, template)
		}

		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, nil, fmt.Errorf("%w: in %q", ErrUnclosedParam, template)
		}
		name := rest[open+1 : open+closing]
		if name == "" || strings.ContainsAny(name, "{/") {
			return nil, nil, fmt.Errorf("%w: invalid placeholder %q in %q", ErrUnclosedParam, name, template)
		}

		// Two placeholders with no literal between them cannot be split.
		if len(names) > 0 && literal == "" {
			return nil, nil, fmt.Errorf("%w: {%s} follows {%s} in %q", ErrAdjacentParams, name, names[len(names)-1], template)
		}

		literals = append(literals, literal)
		names = append(names, name)
		rest = rest[open+closing+1:]
	}
}

// Compile builds a Template for the given path template. Every placeholder
// must be declared by exactly one param; params the template does not
// reference are ignored.
func Compile(template string, params []Param) (*Template, error) {
	literals, names, err := Split(template)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]Param, len(params))
	for _, p := range params {
		if _, dup := declared[p.Name]; dup {
			return nil, fmt.Errorf("%w: %q declared twice for %q", ErrDuplicateParam, p.Name, template)
		}
		declared[p.Name] = p
	}

	for i, lit := range literals {
		literals[i] = escapeLiteral(lit)
	}

	t := &Template{
		raw:      template,
		literals: literals,
		names:    names,
		regexes:  make([]*regexp.Regexp, len(names)),
	}

	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: placeholder {%s} repeated in %q", ErrDuplicateParam, name, template)
		}
		seen[name] = struct{}{}

		p, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("%w: {%s} in %q", ErrUnresolvedParam, name, template)
		}

		expr := p.Regex
		if expr == "" {
			expr = p.Type.DefaultRegex()
		}
		if expr == "" {
			return nil, fmt.Errorf("%w: {%s} has unknown type %s", ErrUnresolvedParam, name, p.Type)
		}
		rx, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: {%s}: %v", ErrInvalidRegexp, name, err)
		}
		t.regexes[i] = rx
	}

	return t, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string, params []Param) *Template {
	t, err := Compile(template, params)
	if err != nil {
		panic(err)
	}
	return t
}

// Raw returns the source template.
func (t *Template) Raw() string { return t.raw }

// Names returns the placeholder names in template order.
func (t *Template) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// NumParams returns the number of placeholders captured on a match.
func (t *Template) NumParams() int { return len(t.names) }

// Match walks path against the template literals in lockstep, capturing
// and validating each placeholder. On any mismatch it returns false and an
// empty map.
func (t *Template) Match(path string) (bool, map[string]string) {
	if !strings.HasPrefix(path, t.literals[0]) {
		return false, map[string]string{}
	}
	offset := len(t.literals[0])
	last := len(t.names)
	params := make(map[string]string, last)

	for i := 1; i <= last; i++ {
		next := t.literals[i]

		var end int
		switch {
		case i == last && next == "":
			end = len(path)
		case i == last:
			if !strings.HasSuffix(path, next) {
				return false, map[string]string{}
			}
			end = len(path) - len(next)
		default:
			idx := strings.Index(path[offset:], next)
			if idx < 0 {
				return false, map[string]string{}
			}
			end = offset + idx
		}

		if end <= offset {
			return false, map[string]string{}
		}

		raw := path[offset:end]
		if !t.regexes[i-1].MatchString(raw) {
			return false, map[string]string{}
		}
		value, err := url.PathUnescape(raw)
		if err != nil {
			return false, map[string]string{}
		}
		params[t.names[i-1]] = value
		offset = end + len(next)
	}

	if offset != len(path) {
		return false, map[string]string{}
	}
	return true, params
}

// escapeLiteral turns template text into the percent-encoded form request
// paths are matched in, so "/café" compares equal to "/caf%C3%A9".
func escapeLiteral(lit string) string {
	if decoded, err := url.PathUnescape(lit); err == nil {
		lit = decoded
	}
	return NormalizePath((&url.URL{Path: lit}).EscapedPath())
}

// NormalizePath upper-cases the hex digits of percent escapes in an
// escaped path. Escapes stay escapes, so "%2F" inside a segment keeps its
// meaning.
func NormalizePath(p string) string {
	if !strings.Contains(p, "%") {
		return p
	}
	b := []byte(p)
	for i := 0; i+2 < len(b); i++ {
		if b[i] != '%' {
			continue
		}
		for j := i + 1; j <= i+2; j++ {
			if b[j] >= 'a' && b[j] <= 'f' {
				b[j] -= 'a' - 'A'
			}
		}
		i += 2
	}
	return string(b)
}

// Matcher returns the template's match function.
func (t *Template) Matcher() Matcher {
	return t.Match
}
