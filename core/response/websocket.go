package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketHandler is returned by a terminal entry to upgrade the request.
// The gateway calls OnStart once, OnMessage per inbound message and OnClose
// when the peer closes. Any error or panic in these hooks reaches OnError
// and never escapes the connection.
type WebSocketHandler interface {
	OnStart(ctx context.Context, conn *websocket.Conn) error
	OnMessage(ctx context.Context, conn *websocket.Conn, msg WebSocketMessage) error
	OnClose(ctx context.Context, code int, reason string)
	OnError(ctx context.Context, err error)
}

// WebSocketMessage is one inbound frame.
type WebSocketMessage struct {
	Type int
	Data []byte
}

// WebSocketFuncs adapts optional functions to WebSocketHandler.
type WebSocketFuncs struct {
	Start   func(ctx context.Context, conn *websocket.Conn) error
	Message func(ctx context.Context, conn *websocket.Conn, msg WebSocketMessage) error
	Close   func(ctx context.Context, code int, reason string)
	Error   func(ctx context.Context, err error)
}

func (f WebSocketFuncs) OnStart(ctx context.Context, conn *websocket.Conn) error {
	if f.Start == nil {
		return nil
	}
	return f.Start(ctx, conn)
}

func (f WebSocketFuncs) OnMessage(ctx context.Context, conn *websocket.Conn, msg WebSocketMessage) error {
	if f.Message == nil {
		return nil
	}
	return f.Message(ctx, conn, msg)
}

func (f WebSocketFuncs) OnClose(ctx context.Context, code int, reason string) {
	if f.Close != nil {
		f.Close(ctx, code, reason)
	}
}

func (f WebSocketFuncs) OnError(ctx context.Context, err error) {
	if f.Error != nil {
		f.Error(ctx, err)
	}
}

// Echo returns a handler writing every message back to the peer.
func Echo() WebSocketHandler {
	return WebSocketFuncs{
		Message: func(_ context.Context, conn *websocket.Conn, msg WebSocketMessage) error {
			return conn.WriteMessage(msg.Type, msg.Data)
		},
	}
}

// Gateway performs the WebSocket handshake and runs the message loop.
type Gateway struct {
	upgrader *websocket.Upgrader
}

// WebSocketOption configures a Gateway.
type WebSocketOption func(*Gateway)

func WithWSReadBuffer(size int) WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.WriteBufferSize = size
	}
}

func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.HandshakeTimeout = timeout
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func WithWSSubprotocols(protocols ...string) WebSocketOption {
	return func(g *Gateway) {
		g.upgrader.Subprotocols = protocols
	}
}

// NewGateway creates a gateway with 1 KiB buffers and the same-origin check.
func NewGateway(opts ...WebSocketOption) *Gateway {
	g := &Gateway{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Serve upgrades the connection and blocks until it closes. header is sent
// with the 101 response. A failed handshake has already been answered by the
// upgrader; its error is returned for logging and also reported to OnError.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, h WebSocketHandler, header http.Header) error {
	ctx := r.Context()

	conn, err := g.upgrader.Upgrade(w, r, header)
	if err != nil {
		safeOnError(ctx, h, err)
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := guard(func() error { return h.OnStart(ctx, conn) }); err != nil {
		safeOnError(ctx, h, err)
		return nil
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				_ = guard(func() error { h.OnClose(ctx, ce.Code, ce.Text); return nil })
				return nil
			}
			safeOnError(ctx, h, err)
			_ = guard(func() error { h.OnClose(ctx, websocket.CloseAbnormalClosure, ""); return nil })
			return nil
		}

		msg := WebSocketMessage{Type: msgType, Data: data}
		if err := guard(func() error { return h.OnMessage(ctx, conn, msg) }); err != nil {
			safeOnError(ctx, h, err)
		}
	}
}

// guard runs fn, turning a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("websocket handler panic: %v\n%s", p, debug.Stack())
		}
	}()
	return fn()
}

func safeOnError(ctx context.Context, h WebSocketHandler, err error) {
	_ = guard(func() error { h.OnError(ctx, err); return nil })
}
