package response_test

import (
	"context"
	"iter"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/response"
)

func TestSSE(t *testing.T) {
	t.Parallel()

	events := make(chan any, 3)
	events <- "plain"
	events <- map[string]int{"n": 1}
	close(events)

	resp := response.SSE(context.Background(), events,
		response.WithEventName("update"),
		response.WithoutKeepAlive(),
		response.WithReconnectTime(500),
	)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, ok := resp.Body.(iter.Seq2[[]byte, error])
	require.True(t, ok)

	var chunks []string
	for chunk, err := range body {
		require.NoError(t, err)
		chunks = append(chunks, string(chunk))
	}

	require.Len(t, chunks, 3)
	assert.Equal(t, "retry: 500\n: connected\n\n", chunks[0])
	assert.Equal(t, "event: update\ndata: plain\n\n", chunks[1])
	assert.Equal(t, "event: update\ndata: {\"n\":1}\n\n", chunks[2])
}

func TestSSEStopsOnContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := response.SSE(ctx, make(chan any), response.WithoutKeepAlive())
	body := resp.Body.(iter.Seq2[[]byte, error])

	var got []string
	for chunk := range body {
		got = append(got, string(chunk))
		cancel()
	}
	assert.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], ": connected"))
}
