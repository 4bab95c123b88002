package byterange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ChunkSize is the size of each chunk emitted while streaming.
const ChunkSize = 64 << 10

// Source opens a fresh seekable handle to a resource. Each stream opens its
// own handle and closes it when done, so a handle never outlives a request.
type Source interface {
	Open(ctx context.Context) (io.ReadSeekCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadSeekCloser, error)

// Open calls f.
func (f SourceFunc) Open(ctx context.Context) (io.ReadSeekCloser, error) {
	return f(ctx)
}

// Chunks streams length bytes starting at offset in ChunkSize pieces.
// The source is opened when iteration starts and closed after the last
// chunk, on the first error, or when the consumer stops early. Iterating
// again opens a new handle. Cancellation of ctx ends the stream with
// ctx.Err().
func Chunks(ctx context.Context, src Source, offset, length int64) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		f, err := src.Open(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("open source: %w", err))
			return
		}
		defer f.Close()

		if offset > 0 {
			if _, err := f.Seek(offset, io.SeekStart); err != nil {
				yield(nil, fmt.Errorf("seek to %d: %w", offset, err))
				return
			}
		}

		remaining := length
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			buf := make([]byte, min(remaining, ChunkSize))
			if _, err := io.ReadFull(f, buf); err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				yield(nil, fmt.Errorf("read %d bytes at %d: %w", len(buf), offset+length-remaining, err))
				return
			}
			remaining -= int64(len(buf))

			if !yield(buf, nil) {
				return
			}
		}
	}
}
