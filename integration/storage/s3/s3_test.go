package s3_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/byterange"
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/router"
	"github.com/dmitrymomot/chainmux/integration/storage/s3"
)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// fakeClient serves objects from memory and records the ranges asked for.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]object
	ranges  []string
	headErr error
}

func (c *fakeClient) HeadObject(_ context.Context, in *s3aws.HeadObjectInput, _ ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error) {
	if c.headErr != nil {
		return nil, c.headErr
	}
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3aws.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(`"etag-1"`),
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (c *fakeClient) GetObject(_ context.Context, in *s3aws.GetObjectInput, _ ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error) {
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	rng := aws.ToString(in.Range)
	c.mu.Lock()
	c.ranges = append(c.ranges, rng)
	c.mu.Unlock()

	var start, end int
	if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	return &s3aws.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data[start : end+1]))}, nil
}

func newBucket(t *testing.T, client *fakeClient, cfg s3.Config) *s3.Bucket {
	t.Helper()
	if cfg.Bucket == "" {
		cfg.Bucket = "assets"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	b, err := s3.New(context.Background(), cfg, s3.WithClient(client))
	require.NoError(t, err)
	return b
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := s3.New(context.Background(), s3.Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, s3.ErrInvalidConfig)

	_, err = s3.New(context.Background(), s3.Config{Bucket: "assets"})
	assert.ErrorIs(t, err, s3.ErrInvalidConfig)
}

func TestBucket_Stat(t *testing.T) {
	t.Parallel()

	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{objects: map[string]object{
		"static/app.js": {data: []byte("console.log(1)"), contentType: "text/javascript", modified: modified},
	}}
	b := newBucket(t, client, s3.Config{Prefix: "static/"})

	info, err := b.Stat(context.Background(), "/app.js")
	require.NoError(t, err)
	assert.Equal(t, "static/app.js", info.Key)
	assert.Equal(t, int64(14), info.Size)
	assert.Equal(t, "text/javascript", info.ContentType)
	assert.Equal(t, modified, info.LastModified)

	_, err = b.Stat(context.Background(), "missing.js")
	assert.ErrorIs(t, err, s3.ErrObjectNotFound)
}

func TestBucket_StatErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: s3.ErrAccessDenied},
		{name: "slow down", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: s3.ErrServiceUnavailable},
		{name: "no bucket", err: &types.NoSuchBucket{}, want: s3.ErrBucketNotFound},
		{name: "deadline", err: context.DeadlineExceeded, want: s3.ErrOperationTimeout},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newBucket(t, &fakeClient{headErr: tt.err}, s3.Config{})
			_, err := b.Stat(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBucket_SourceRequestsOnlyTheRange(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789abcdefghij")
	client := &fakeClient{objects: map[string]object{"f.bin": {data: data}}}
	b := newBucket(t, client, s3.Config{})

	var got []byte
	for chunk, err := range byterange.Chunks(context.Background(), b.Source("f.bin", int64(len(data))), 5, 10) {
		require.NoError(t, err)
		got = append(got, chunk...)
	}

	assert.Equal(t, "56789abcde", string(got))
	assert.Equal(t, []string{"bytes=5-19"}, client.ranges)
}

func TestBucket_Entry(t *testing.T) {
	t.Parallel()

	data := []byte("hello from the bucket")
	client := &fakeClient{objects: map[string]object{
		"img/logo.txt": {data: data, contentType: "text/plain", modified: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		"raw":          {data: []byte("raw")},
	}}
	b := newBucket(t, client, s3.Config{})

	allow := handler.New("allow", func(*handler.Context, handler.Args) (any, error) {
		return true, nil
	})
	r := router.New()
	r.Get("/media/{key}", b.Entry("key"))
	r.Get("/guarded/{key}", allow, allow, b.Entry("key"))

	tests := []struct {
		name    string
		target  string
		rng     string
		status  int
		body    string
		headers map[string]string
	}{
		{
			name:   "whole object",
			target: "/media/img/logo.txt",
			status: http.StatusOK,
			body:   string(data),
			headers: map[string]string{
				"Content-Type":   "text/plain",
				"Accept-Ranges":  "bytes",
				"ETag":           `"etag-1"`,
				"Last-Modified":  "Thu, 02 Jan 2025 03:04:05 GMT",
				"Content-Length": "21",
			},
		},
		{
			name:   "range",
			target: "/media/img/logo.txt",
			rng:    "bytes=6-9",
			status: http.StatusPartialContent,
			body:   "from",
			headers: map[string]string{
				"Content-Range":  "bytes 6-9/21",
				"Content-Length": "4",
			},
		},
		{
			name:    "default content type",
			target:  "/media/raw",
			status:  http.StatusOK,
			body:    "raw",
			headers: map[string]string{"Content-Type": "application/octet-stream"},
		},
		{
			name:    "nested key behind filters",
			target:  "/guarded/img/logo.txt",
			status:  http.StatusOK,
			body:    string(data),
			headers: map[string]string{"Content-Type": "text/plain"},
		},
		{name: "missing", target: "/media/nope.txt", status: http.StatusNotFound},
		{name: "directory", target: "/media/img/", status: http.StatusNotFound},
		{name: "traversal", target: "/media/img/../raw", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.rng != "" {
				req.Header.Set("Range", tt.rng)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
			for k, v := range tt.headers {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
		})
	}
}

func TestBucket_EntryFailure(t *testing.T) {
	t.Parallel()

	b := newBucket(t, &fakeClient{headErr: errors.New("network down")}, s3.Config{})
	r := router.New()
	r.Get("/media/{key}", b.Entry("key"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/a.txt", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
