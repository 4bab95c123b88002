package response

import (
	"mime"
	"slices"
	"strconv"
	"strings"
)

// DefaultContentType is produced when an entry declares no content types.
const DefaultContentType = "text/plain"

// MediaRange is one element of an Accept header.
type MediaRange struct {
	Type    string
	Quality float64
}

// ParseAccept splits an Accept header into media ranges ordered by
// descending quality, keeping header order among equal qualities. Ranges
// with q=0 are dropped. An empty header is treated as "*/*".
func ParseAccept(accept string) []MediaRange {
	if strings.TrimSpace(accept) == "" {
		return []MediaRange{{Type: "*/*", Quality: 1}}
	}

	var ranges []MediaRange
	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		// Some clients send a bare "*".
		if mediaType == "*" {
			mediaType = "*/*"
		}

		q := 1.0
		if qs, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(qs, 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		ranges = append(ranges, MediaRange{Type: mediaType, Quality: q})
	}

	slices.SortStableFunc(ranges, func(a, b MediaRange) int {
		switch {
		case a.Quality > b.Quality:
			return -1
		case a.Quality < b.Quality:
			return 1
		default:
			return 0
		}
	})
	return ranges
}

// Matches reports whether the range accepts contentType.
func (m MediaRange) Matches(contentType string) bool {
	ct := baseType(contentType)
	switch {
	case m.Type == "*/*":
		return true
	case strings.HasSuffix(m.Type, "/*"):
		return strings.HasPrefix(ct, strings.TrimSuffix(m.Type, "*"))
	default:
		return m.Type == ct
	}
}

// Negotiate picks the produced content type for an Accept header. The
// highest-quality range wins; within a range the declaration order of
// produces decides. With no compatible type the first declared type is
// used, so a response is always produced.
func Negotiate(accept string, produces []string) string {
	if len(produces) == 0 {
		produces = []string{DefaultContentType}
	}
	for _, r := range ParseAccept(accept) {
		for _, p := range produces {
			if r.Matches(p) {
				return p
			}
		}
	}
	return produces[0]
}

// baseType strips parameters and lower-cases a media type.
func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
