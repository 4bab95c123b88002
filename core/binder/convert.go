package binder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/pattern"
)

// convert turns a raw request string into the Go value for typ:
// string, int64, float64 or bool.
func convert(name, raw string, typ pattern.Type) (any, error) {
	switch typ {
	case pattern.String:
		return raw, nil
	case pattern.Int:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not an int", handler.ErrInvalidParam, name, raw)
		}
		return v, nil
	case pattern.Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a float", handler.ErrInvalidParam, name, raw)
		}
		return v, nil
	case pattern.Bool:
		v, ok := parseBool(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s=%q is not a bool", handler.ErrInvalidParam, name, raw)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s has unknown type %s", handler.ErrInvalidParam, name, typ)
	}
}

// parseBool accepts the same spellings as the bool path regex.
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "1", "y", "yes", "true":
		return true, true
	case "0", "n", "no", "false":
		return false, true
	default:
		return false, false
	}
}
