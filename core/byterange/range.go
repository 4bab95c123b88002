package byterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoRange means the request carried no Range header.
	ErrNoRange = errors.New("no range requested")
	// ErrInvalidRange means the Range header is malformed, names multiple
	// ranges or cannot be satisfied. Callers fall back to the full content.
	ErrInvalidRange = errors.New("invalid byte range")
)

// Range is an inclusive byte span.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes in the span.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a resource of size bytes.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Parse reads a single-range header of the form "bytes=start-end" against
// a resource of size bytes. "bytes=-N" selects the last N bytes and
// "bytes=N-" everything from N. An end past the resource is clamped.
func Parse(header string, size int64) (Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Range{}, ErrNoRange
	}

	unit, spec, ok := strings.Cut(header, "=")
	if !ok || strings.TrimSpace(unit) != "bytes" {
		return Range{}, fmt.Errorf("%w: unsupported unit in %q", ErrInvalidRange, header)
	}
	if strings.Contains(spec, ",") {
		return Range{}, fmt.Errorf("%w: multiple ranges are not supported", ErrInvalidRange)
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	switch {
	case first == "" && last == "":
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)

	case first == "":
		n, err := parseOffset(last)
		if err != nil || n == 0 {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
		}
		if size == 0 {
			return Range{}, fmt.Errorf("%w: empty resource", ErrInvalidRange)
		}
		return Range{Start: max(size-n, 0), End: size - 1}, nil
	}

	start, err := parseOffset(first)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}
	if start >= size {
		return Range{}, fmt.Errorf("%w: start %d beyond size %d", ErrInvalidRange, start, size)
	}

	end := size - 1
	if last != "" {
		e, err := parseOffset(last)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
		}
		if start > e {
			return Range{}, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, e)
		}
		end = min(e, size-1)
	}

	return Range{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
