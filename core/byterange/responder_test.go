package byterange_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/byterange"
)

// trackedFile is an in-memory handle that counts opens and closes.
type trackedFile struct {
	*bytes.Reader
	closes *atomic.Int32
}

func (f trackedFile) Close() error {
	f.closes.Add(1)
	return nil
}

type memSource struct {
	data   []byte
	opens  atomic.Int32
	closes atomic.Int32
}

func (s *memSource) Open(context.Context) (io.ReadSeekCloser, error) {
	s.opens.Add(1)
	return trackedFile{Reader: bytes.NewReader(s.data), closes: &s.closes}, nil
}

func resource(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func collect(t *testing.T, body any) []byte {
	t.Helper()

	seq, ok := body.(iter.Seq2[[]byte, error])
	require.True(t, ok)

	var out []byte
	for chunk, err := range seq {
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	return out
}

func TestServePartialContent(t *testing.T) {
	t.Parallel()

	src := &memSource{data: resource(1000)}
	resp := byterange.Serve(context.Background(), src, 1000, "bytes=200-299")

	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "bytes 200-299/1000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "100", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

	body := collect(t, resp.Body)
	assert.Len(t, body, 100)
	assert.Equal(t, src.data[200:300], body)
	assert.Equal(t, int32(1), src.opens.Load())
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestServeMalformedRangeFallsBack(t *testing.T) {
	t.Parallel()

	src := &memSource{data: resource(1000)}
	resp := byterange.Serve(context.Background(), src, 1000, "bytes=abc")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Header.Get("Content-Range"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "1000", resp.Header.Get("Content-Length"))
	assert.Equal(t, src.data, collect(t, resp.Body))
}

func TestServeWithoutRangeStreamsChunks(t *testing.T) {
	t.Parallel()

	size := byterange.ChunkSize*2 + 10
	src := &memSource{data: resource(size)}
	resp := byterange.Serve(context.Background(), src, int64(size), "")

	seq := resp.Body.(iter.Seq2[[]byte, error])
	var sizes []int
	var out []byte
	for chunk, err := range seq {
		require.NoError(t, err)
		sizes = append(sizes, len(chunk))
		out = append(out, chunk...)
	}

	assert.Equal(t, []int{byterange.ChunkSize, byterange.ChunkSize, 10}, sizes)
	assert.Equal(t, src.data, out)

	// Iterating again reopens the source.
	assert.Equal(t, src.data, collect(t, resp.Body))
	assert.Equal(t, int32(2), src.opens.Load())
	assert.Equal(t, int32(2), src.closes.Load())
}

func TestChunksClosesOnEarlyStop(t *testing.T) {
	t.Parallel()

	size := byterange.ChunkSize * 3
	src := &memSource{data: resource(size)}

	for range byterange.Chunks(context.Background(), src, 0, int64(size)) {
		break
	}
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestChunksCancelled(t *testing.T) {
	t.Parallel()

	src := &memSource{data: resource(byterange.ChunkSize * 2)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotErr error
	n := 0
	for _, err := range byterange.Chunks(ctx, src, 0, int64(len(src.data))) {
		if err != nil {
			gotErr = err
			break
		}
		n++
		cancel()
	}

	assert.Equal(t, 1, n)
	assert.ErrorIs(t, gotErr, context.Canceled)
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestChunksShortSource(t *testing.T) {
	t.Parallel()

	src := &memSource{data: resource(50)}

	var gotErr error
	for _, err := range byterange.Chunks(context.Background(), src, 40, 20) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, io.ErrUnexpectedEOF)
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestChunksOpenFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := byterange.SourceFunc(func(context.Context) (io.ReadSeekCloser, error) { return nil, boom })

	var gotErr error
	for _, err := range byterange.Chunks(context.Background(), src, 0, 10) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, boom)
}
