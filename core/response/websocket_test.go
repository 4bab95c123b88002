package response_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/response"
)

func serveGateway(t *testing.T, gw *response.Gateway, h response.WebSocketHandler) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = gw.Serve(w, r, h, http.Header{"X-Upgraded-By": {"chainmux"}})
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestGateway_Echo(t *testing.T) {
	t.Parallel()

	wsURL := serveGateway(t, response.NewGateway(response.WithWSAllowAnyOrigin()), response.Echo())

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, "chainmux", resp.Header.Get("X-Upgraded-By"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, "hello", string(data))
}

func TestGateway_Lifecycle(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		started  bool
		messages []string
		errs     []error
		closed   = make(chan int, 1)
	)

	h := response.WebSocketFuncs{
		Start: func(ctx context.Context, conn *websocket.Conn) error {
			mu.Lock()
			started = true
			mu.Unlock()
			return nil
		},
		Message: func(ctx context.Context, conn *websocket.Conn, msg response.WebSocketMessage) error {
			mu.Lock()
			messages = append(messages, string(msg.Data))
			mu.Unlock()
			switch string(msg.Data) {
			case "fail":
				return errors.New("handler failed")
			case "panic":
				panic("boom")
			}
			return conn.WriteMessage(websocket.TextMessage, []byte("ack"))
		},
		Error: func(ctx context.Context, err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
		Close: func(ctx context.Context, code int, reason string) {
			closed <- code
		},
	}

	wsURL := serveGateway(t, response.NewGateway(response.WithWSAllowAnyOrigin()), h)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, m := range []string{"fail", "panic", "ok"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(m)))
	}

	// The connection survives both faults and still answers.
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ack", string(data))

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
	))

	select {
	case code := <-closed:
		assert.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, started)
	assert.Equal(t, []string{"fail", "panic", "ok"}, messages)
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], "handler failed")
	assert.Contains(t, errs[1].Error(), "boom")
}

func TestGateway_RejectsPlainRequest(t *testing.T) {
	t.Parallel()

	var gotErr error
	h := response.WebSocketFuncs{Error: func(ctx context.Context, err error) { gotErr = err }}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)

	err := response.NewGateway().Serve(w, r, h, nil)
	require.Error(t, err)
	assert.Equal(t, err, gotErr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGateway_StartErrorClosesConnection(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 1)
	h := response.WebSocketFuncs{
		Start: func(ctx context.Context, conn *websocket.Conn) error { return errors.New("denied") },
		Error: func(ctx context.Context, err error) { errCh <- err },
	}

	wsURL := serveGateway(t, response.NewGateway(response.WithWSAllowAnyOrigin()), h)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case err := <-errCh:
		assert.EqualError(t, err, "denied")
	case <-time.After(2 * time.Second):
		t.Fatal("OnError was not called")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
