package binder_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/binder"
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/session"
)

type createUser struct {
	Name  string `json:"name" xml:"name" yaml:"name"`
	Email string `json:"email" xml:"email" yaml:"email"`
}

func newCtx(req *http.Request, params map[string]string) *handler.Context {
	ctx := handler.NewContext(req)
	ctx.SetChainParams([]map[string]string{params})
	return ctx
}

func TestResolveScalars(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/users/42?verbose&page=3&ratio=0.5", nil)
	req.Header.Set("X-Tenant", "acme")
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	ctx := newCtx(req, map[string]string{"id": "42"})

	args, err := binder.New().Resolve(ctx, []handler.Param{
		handler.Path("id", pattern.Int),
		handler.Query("verbose", pattern.Bool),
		handler.Query("page", pattern.Int),
		handler.Query("ratio", pattern.Float),
		handler.Query("missing", pattern.String),
		handler.Header("X-Tenant"),
		handler.Cookie("theme"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), args.Int("id"))
	assert.True(t, args.Bool("verbose"))
	assert.Equal(t, int64(3), args.Int("page"))
	assert.InDelta(t, 0.5, args.Float("ratio"), 0)
	assert.False(t, args.Has("missing"))
	assert.Equal(t, "acme", args.String("X-Tenant"))
	assert.Equal(t, "dark", args.String("theme"))
}

func TestResolveInvalidScalar(t *testing.T) {
	t.Parallel()

	ctx := newCtx(httptest.NewRequest(http.MethodGet, "/?page=two", nil), nil)
	_, err := binder.New().Resolve(ctx, []handler.Param{handler.Query("page", pattern.Int)})
	assert.ErrorIs(t, err, handler.ErrInvalidParam)
}

func TestResolveBody(t *testing.T) {
	t.Parallel()

	multipartBody := func(t *testing.T) (string, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "bob"))
		fw, err := mw.CreateFormFile("avatar", "a.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return mw.FormDataContentType(), buf.Bytes()
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		newFn       func() any
		check       func(t *testing.T, v any)
	}{
		{
			name:        "json untyped",
			contentType: "application/json",
			body:        `{"name":"bob"}`,
			check: func(t *testing.T, v any) {
				assert.Equal(t, map[string]any{"name": "bob"}, v)
			},
		},
		{
			name:        "json typed",
			contentType: "application/json; charset=utf-8",
			body:        `{"name":"bob","email":"b@x.io"}`,
			newFn:       func() any { return &createUser{} },
			check: func(t *testing.T, v any) {
				assert.Equal(t, &createUser{Name: "bob", Email: "b@x.io"}, v)
			},
		},
		{
			name:        "form untyped",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=bob&tag=a&tag=b",
			check: func(t *testing.T, v any) {
				assert.Equal(t, map[string]any{"name": "bob", "tag": []string{"a", "b"}}, v)
			},
		},
		{
			name:        "form typed",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=bob&email=b%40x.io",
			newFn:       func() any { return &createUser{} },
			check: func(t *testing.T, v any) {
				assert.Equal(t, &createUser{Name: "bob", Email: "b@x.io"}, v)
			},
		},
		{
			name:        "xml typed",
			contentType: "application/xml",
			body:        `<user><name>bob</name><email>b@x.io</email></user>`,
			newFn:       func() any { return &createUser{} },
			check: func(t *testing.T, v any) {
				assert.Equal(t, &createUser{Name: "bob", Email: "b@x.io"}, v)
			},
		},
		{
			name:        "yaml typed",
			contentType: "application/yaml",
			body:        "name: bob\nemail: b@x.io\n",
			newFn:       func() any { return &createUser{} },
			check: func(t *testing.T, v any) {
				assert.Equal(t, &createUser{Name: "bob", Email: "b@x.io"}, v)
			},
		},
		{
			name:        "text",
			contentType: "text/plain",
			body:        "hello",
			check: func(t *testing.T, v any) {
				assert.Equal(t, "hello", v)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			args, err := binder.New().Resolve(newCtx(req, nil), []handler.Param{handler.Body("payload", tt.newFn)})
			require.NoError(t, err)
			tt.check(t, args.Value("payload"))
		})
	}

	t.Run("multipart", func(t *testing.T) {
		t.Parallel()

		ct, body := multipartBody(t)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("Content-Type", ct)

		args, err := binder.New().Resolve(newCtx(req, nil), []handler.Param{handler.Body("form", nil)})
		require.NoError(t, err)

		fields, ok := args.Value("form").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "bob", fields["name"])
		files, ok := fields["avatar"].([]*multipart.FileHeader)
		require.True(t, ok)
		require.Len(t, files, 1)
		assert.Equal(t, "a.png", files[0].Filename)
	})
}

func TestResolveBodyRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		kind        error
	}{
		{"missing content type", "", `{}`, binder.ErrMissingContentType},
		{"bad json", "application/json", `{`, binder.ErrFailedToParseJSON},
		{"unsupported", "image/png", "x", binder.ErrUnsupportedMediaType},
		{"bad yaml", "application/yaml", "a: [", binder.ErrFailedToParseYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			_, err := binder.New().Resolve(newCtx(req, nil), []handler.Param{handler.Body("b", nil)})
			require.Error(t, err)
			assert.ErrorIs(t, err, handler.ErrContentTypeRejected)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestResolveSession(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	manager := session.NewManager(store, session.WithOptions(session.WithTTL(time.Hour)))
	r := binder.New(binder.WithSessionStore(manager))

	t.Run("new session issues cookie", func(t *testing.T) {
		t.Parallel()

		ctx := newCtx(httptest.NewRequest(http.MethodGet, "/", nil), nil)
		args, err := r.Resolve(ctx, []handler.Param{handler.Session("sess")})
		require.NoError(t, err)

		sess := args.Session("sess")
		require.NotNil(t, sess)
		require.Len(t, ctx.Cookies(), 1)
		assert.Equal(t, session.CookieName, ctx.Cookies()[0].Name)
		assert.Equal(t, sess.ID, ctx.Cookies()[0].Value)

		// A later entry in the same chain sees the issued id and the same session.
		args, err = r.Resolve(ctx, []handler.Param{handler.SessionID("id"), handler.Session("again")})
		require.NoError(t, err)
		assert.Equal(t, sess.ID, args.String("id"))
		assert.Same(t, sess, args.Session("again"))
		require.Len(t, ctx.Cookies(), 1)

		bound, ok := session.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, sess, bound)
	})

	t.Run("existing session keeps cookie", func(t *testing.T) {
		t.Parallel()

		existing := session.New(time.Hour)
		existing.Set("theme", "dark")
		require.NoError(t, store.Save(context.Background(), existing))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: existing.ID})
		ctx := newCtx(req, nil)

		args, err := r.Resolve(ctx, []handler.Param{handler.Session("sess")})
		require.NoError(t, err)
		sess := args.Session("sess")
		require.NotNil(t, sess)
		assert.Equal(t, existing.ID, sess.ID)
		theme, _ := sess.Get("theme")
		assert.Equal(t, "dark", theme)
		assert.Empty(t, ctx.Cookies())
	})

	t.Run("no store", func(t *testing.T) {
		t.Parallel()

		ctx := newCtx(httptest.NewRequest(http.MethodGet, "/", nil), nil)
		_, err := binder.New().Resolve(ctx, []handler.Param{handler.Session("sess")})
		assert.ErrorIs(t, err, binder.ErrNoSessionStore)
	})
}
