package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrymomot/chainmux/core/byterange"
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/response"
)

// ErrNotSeekable is returned when a file of the served filesystem cannot seek.
var ErrNotSeekable = errors.New("static: file does not support seeking")

// Config holds static file serving configuration.
type Config struct {
	Webroot      string `env:"HTTP_WEBROOT" envDefault:"./public"`
	CacheControl string `env:"HTTP_STATIC_CACHE_CONTROL"`
}

// Handler serves files from a filesystem. Directories requested without a
// trailing slash are redirected, directories with one serve their index
// file, and everything else is streamed through the byte-range responder.
type Handler struct {
	fsys         fs.FS
	index        string
	cacheControl string
	spa          bool
	exclude      []string
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithIndex sets the file served for directory requests (default: "index.html").
func WithIndex(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.index = name
		}
	}
}

// WithCacheControl sets the Cache-Control header of every served file.
func WithCacheControl(value string) Option {
	return func(h *Handler) {
		h.cacheControl = value
	}
}

// WithSPA serves the root index file for paths that do not exist, so a
// single page application can route on the client. Paths under the
// excluded prefixes still get 404.
func WithSPA(excludePaths ...string) Option {
	return func(h *Handler) {
		h.spa = true
		h.exclude = excludePaths
	}
}

// WithLogger sets the logger for file access failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a handler serving fsys, which may be an embed.FS.
// Files must implement io.Seeker.
func New(fsys fs.FS, opts ...Option) *Handler {
	h := &Handler{
		fsys:   fsys,
		index:  "index.html",
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dir creates a handler serving the directory root.
// Panics at startup if the directory doesn't exist.
func Dir(root string, opts ...Option) *Handler {
	root = filepath.Clean(root)
	if err := validateDir(root); err != nil {
		panic("static.Dir: " + err.Error())
	}
	return New(os.DirFS(root), opts...)
}

// FromConfig creates a handler for cfg.Webroot.
func FromConfig(cfg Config, opts ...Option) *Handler {
	return Dir(cfg.Webroot, append([]Option{WithCacheControl(cfg.CacheControl)}, opts...)...)
}

func validateDir(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", root)
		}
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root)
	}
	return nil
}

// Entry returns the handler as a chain entry. It is meant as the terminal
// entry of the "@404" chain, so unmatched requests fall back to files.
func (h *Handler) Entry() handler.Entry {
	return handler.New("static", h.Serve, handler.Header("Range"))
}

// Serve answers the request path from the filesystem.
func (h *Handler) Serve(ctx *handler.Context, args handler.Args) (any, error) {
	urlPath := ctx.Request().URL.Path
	if urlPath == "" {
		urlPath = "/"
	}
	if slices.Contains(strings.Split(urlPath, "/"), "..") {
		return notFound(), nil
	}

	name := strings.TrimPrefix(path.Clean(urlPath), "/")
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(h.fsys, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return h.missing(ctx, urlPath, args)
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}

	if info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			target := urlPath + "/"
			if q := ctx.Request().URL.RawQuery; q != "" {
				target += "?" + q
			}
			return response.Redirect(target, http.StatusMovedPermanently), nil
		}
		name = path.Join(name, h.index)
		info, err = fs.Stat(h.fsys, name)
		if err != nil || info.IsDir() {
			return notFound(), nil
		}
	}

	return h.file(ctx, name, info, args.String("Range")), nil
}

// missing answers a path that does not exist.
func (h *Handler) missing(ctx *handler.Context, urlPath string, args handler.Args) (any, error) {
	if !h.spa || h.excluded(urlPath) {
		return notFound(), nil
	}
	info, err := fs.Stat(h.fsys, h.index)
	if err != nil || info.IsDir() {
		h.logger.WarnContext(ctx, "spa index missing",
			logger.Component("static"),
			logger.Path(h.index),
			logger.Error(err),
		)
		return notFound(), nil
	}
	return h.file(ctx, h.index, info, args.String("Range")), nil
}

func (h *Handler) excluded(urlPath string) bool {
	for _, prefix := range h.exclude {
		if urlPath == prefix || strings.HasPrefix(urlPath, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func (h *Handler) file(ctx *handler.Context, name string, info fs.FileInfo, rangeHeader string) *response.Response {
	resp := byterange.Serve(ctx, &Source{FS: h.fsys, Name: name}, info.Size(), rangeHeader)
	resp.Header.Set("Content-Type", contentType(name))
	if mod := info.ModTime(); !mod.IsZero() {
		resp.Header.Set("Last-Modified", mod.UTC().Format(http.TimeFormat))
	}
	if h.cacheControl != "" {
		resp.Header.Set("Cache-Control", h.cacheControl)
	}
	return resp
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func notFound() *response.Response {
	return response.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// Source opens one file of a filesystem for byte-range reads.
type Source struct {
	FS   fs.FS
	Name string
}

// Open implements byterange.Source.
func (s *Source) Open(_ context.Context) (io.ReadSeekCloser, error) {
	f, err := s.FS.Open(s.Name)
	if err != nil {
		return nil, err
	}
	rsc, ok := f.(io.ReadSeekCloser)
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotSeekable, s.Name)
	}
	return rsc, nil
}

// File returns an entry serving the single file at filePath.
// Panics at startup if the file doesn't exist or is a directory.
func File(filePath string, opts ...Option) handler.Entry {
	cleanPath := filepath.Clean(filePath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		panic("static.File: error accessing file: " + err.Error())
	}
	if info.IsDir() {
		panic("static.File: path is a directory, not a file: " + cleanPath)
	}

	h := New(os.DirFS(filepath.Dir(cleanPath)), opts...)
	name := filepath.Base(cleanPath)
	return handler.New("static.File", func(ctx *handler.Context, args handler.Args) (any, error) {
		info, err := fs.Stat(h.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", cleanPath, err)
		}
		return h.file(ctx, name, info, args.String("Range")), nil
	}, handler.Header("Range"))
}
