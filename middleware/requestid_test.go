package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/router"
	"github.com/dmitrymomot/chainmux/middleware"
)

func TestRequestID_Generated(t *testing.T) {
	t.Parallel()

	var fromContext, fromState string
	r := router.New()
	r.Get("/test", middleware.RequestID(), handler.New("capture", func(ctx *handler.Context, _ handler.Args) (any, error) {
		id, ok := middleware.GetRequestID(ctx)
		assert.True(t, ok)
		fromContext = id
		v, _ := ctx.Get("request_id")
		fromState, _ = v.(string)
		return "ok", nil
	}))

	w := serve(r, "/test")

	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "default id should be a UUID")
	assert.Equal(t, id, fromContext)
	assert.Equal(t, id, fromState)
}

func TestRequestID_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []middleware.RequestIDOption
		incoming string
		header   string
		want     string
	}{
		{
			name:     "incoming id ignored by default",
			opts:     []middleware.RequestIDOption{middleware.WithRequestIDGenerator(func() string { return "generated" })},
			incoming: "client-id",
			header:   middleware.RequestIDHeader,
			want:     "generated",
		},
		{
			name: "incoming id reused",
			opts: []middleware.RequestIDOption{
				middleware.WithExistingRequestID(),
				middleware.WithRequestIDGenerator(func() string { return "generated" }),
			},
			incoming: "client-id",
			header:   middleware.RequestIDHeader,
			want:     "client-id",
		},
		{
			name: "generator used when no incoming id",
			opts: []middleware.RequestIDOption{
				middleware.WithExistingRequestID(),
				middleware.WithRequestIDGenerator(func() string { return "generated" }),
			},
			header: middleware.RequestIDHeader,
			want:   "generated",
		},
		{
			name: "custom header",
			opts: []middleware.RequestIDOption{
				middleware.WithRequestIDHeader("X-Trace-ID"),
				middleware.WithRequestIDGenerator(func() string { return "trace" }),
			},
			header: "X-Trace-ID",
			want:   "trace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := router.New()
			r.Get("/", middleware.RequestID(tt.opts...), ok())

			w := serve(r, "/", func(req *http.Request) {
				if tt.incoming != "" {
					req.Header.Set(tt.header, tt.incoming)
				}
			})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get(tt.header))
		})
	}
}

func TestRequestID_TagsLogRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)

	r := router.New(router.WithLogger(log))
	r.Get("/",
		middleware.RequestID(middleware.WithRequestIDGenerator(func() string { return "req-42" })),
		handler.New("log", func(ctx *handler.Context, _ handler.Args) (any, error) {
			log.InfoContext(ctx, "handled")
			return "ok", nil
		}),
	)

	w := serve(r, "/")
	require.Equal(t, http.StatusOK, w.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), buf.String())
	assert.Equal(t, "handled", record["msg"])
	assert.Equal(t, "req-42", record["request_id"])
}
