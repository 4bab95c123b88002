package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/chainmux/core/byterange"
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/response"
)

// ObjectInfo is the metadata HeadObject reports.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

func (b *Bucket) key(name string) string {
	return b.prefix + strings.TrimPrefix(name, "/")
}

// Stat returns the metadata of the object name.
func (b *Bucket) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	key := b.key(name)
	out, err := b.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, classifyError(err, "head "+key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Source returns a byte-range source for the object name of size bytes.
func (b *Bucket) Source(name string, size int64) byterange.Source {
	key := b.key(name)
	return byterange.SourceFunc(func(ctx context.Context) (io.ReadSeekCloser, error) {
		return &objectReader{ctx: ctx, bucket: b, key: key, size: size}, nil
	})
}

// Serve answers with the object name. Range requests become ranged GETs.
func (b *Bucket) Serve(ctx context.Context, name, rangeHeader string) (*response.Response, error) {
	info, err := b.Stat(ctx, name)
	if err != nil {
		return nil, err
	}
	resp := byterange.Serve(ctx, b.Source(name, info.Size), info.Size, rangeHeader)
	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	resp.Header.Set("Content-Type", ct)
	if info.ETag != "" {
		resp.Header.Set("ETag", info.ETag)
	}
	if !info.LastModified.IsZero() {
		resp.Header.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	return resp, nil
}

// Entry returns a terminal entry serving the object named by the path
// parameter param. The parameter may span slashes, so it belongs at the end
// of the template. Missing objects answer 404.
func (b *Bucket) Entry(param string) handler.Entry {
	return handler.New("s3", func(ctx *handler.Context, args handler.Args) (any, error) {
		name := args.String(param)
		if strings.HasSuffix(name, "/") || slices.Contains(strings.Split(name, "/"), "..") {
			return notFound(), nil
		}
		resp, err := b.Serve(ctx, name, args.String("Range"))
		if errors.Is(err, ErrObjectNotFound) {
			return notFound(), nil
		}
		if err != nil {
			b.logger.WarnContext(ctx, "object read failed",
				logger.Component("s3"),
				logger.Key("key", b.key(name)),
				logger.Error(err),
			)
			return nil, err
		}
		return resp, nil
	},
		handler.Path(param, pattern.String).WithRegex(`.+`),
		handler.Header("Range"),
	)
}

func notFound() *response.Response {
	return response.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// objectReader reads an object from a seek position. The GET is issued on
// the first Read after a seek and asks only for the bytes from there on.
type objectReader struct {
	ctx    context.Context
	bucket *Bucket
	key    string
	size   int64

	offset int64
	body   io.ReadCloser
}

func (r *objectReader) Read(p []byte) (int, error) {
	if r.offset >= r.size {
		return 0, io.EOF
	}
	if r.body == nil {
		out, err := r.bucket.client.GetObject(r.ctx, &s3aws.GetObjectInput{
			Bucket: aws.String(r.bucket.bucket),
			Key:    aws.String(r.key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", r.offset, r.size-1)),
		})
		if err != nil {
			return 0, classifyError(err, "get "+r.key)
		}
		r.body = out.Body
	}
	n, err := r.body.Read(p)
	r.offset += int64(n)
	return n, err
}

func (r *objectReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("%w: whence %d", ErrInvalidSeek, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, abs)
	}
	if abs != r.offset && r.body != nil {
		_ = r.body.Close()
		r.body = nil
	}
	r.offset = abs
	return abs, nil
}

func (r *objectReader) Close() error {
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}
