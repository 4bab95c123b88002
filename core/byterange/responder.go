package byterange

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/chainmux/core/response"
)

// Serve answers a request for a resource of size bytes. A valid single
// range yields 206 with Content-Range and exactly the requested bytes. No
// range, or an invalid one, yields 200 with the whole resource. Both
// advertise Accept-Ranges. The body is a lazy chunk stream; nothing is read
// until the response is written.
func Serve(ctx context.Context, src Source, size int64, rangeHeader string) *response.Response {
	r, err := Parse(rangeHeader, size)
	if err != nil {
		resp := response.New(http.StatusOK, Chunks(ctx, src, 0, size))
		resp.Header.Set("Accept-Ranges", "bytes")
		resp.Header.Set("Content-Length", strconv.FormatInt(size, 10))
		return resp
	}

	resp := response.New(http.StatusPartialContent, Chunks(ctx, src, r.Start, r.Length()))
	resp.Header.Set("Accept-Ranges", "bytes")
	resp.Header.Set("Content-Range", r.ContentRange(size))
	resp.Header.Set("Content-Length", strconv.FormatInt(r.Length(), 10))
	return resp
}
