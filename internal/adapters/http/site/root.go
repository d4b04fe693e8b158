// Package site serves the landing page, the placeholder image and the
// dataset image directory.
package site

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/okian/radrate/internal/domain/imagepath"
	"github.com/okian/radrate/pkg/logger"
)

// Error constants
var (
	ErrImagesDir = errors.New("images directory unusable")
)

const placeholderFile = "placeholder-xray.png"

// Option applies a configuration option to the site routes.
type Option func(*options)

type options struct {
	imagesDir   string
	imagesBase  string
	placeholder string
	logger      logger.Logger
}

// WithImagesDir serves files under dir at the images base path.
func WithImagesDir(dir string) Option {
	return func(o *options) { o.imagesDir = dir }
}

// WithImagesBase sets the URL prefix images are served under.
func WithImagesBase(base string) Option {
	return func(o *options) {
		if base != "" {
			o.imagesBase = base
		}
	}
}

// WithPlaceholder sets the path the embedded placeholder image is served at.
func WithPlaceholder(path string) Option {
	return func(o *options) { o.placeholder = path }
}

// WithLogger sets the logger for registration messages.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Register attaches the site routes to mux.
func Register(ctx context.Context, mux *http.ServeMux, opts ...Option) error {
	if mux == nil {
		panic("mux is nil")
	}
	o := options{
		imagesBase:  imagepath.DefaultBase,
		placeholder: "/" + placeholderFile,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	mux.Handle("GET /{$}", NewRootHandler())

	if strings.HasPrefix(o.placeholder, "/") {
		mux.HandleFunc("GET "+o.placeholder, func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, staticFS(), placeholderFile)
		})
	}

	if o.imagesDir == "" || imagepath.IsURL(o.imagesBase) {
		return nil
	}
	info, err := os.Stat(o.imagesDir)
	if err != nil {
		return errors.Join(ErrImagesDir, err)
	}
	if !info.IsDir() {
		return errors.Join(ErrImagesDir, errors.New(o.imagesDir+" is not a directory"))
	}

	base := "/" + strings.Trim(o.imagesBase, "/") + "/"
	mux.Handle("GET "+base, http.StripPrefix(base, http.FileServerFS(os.DirFS(o.imagesDir))))
	o.logger.Info(ctx, "serving dataset images",
		logger.String("dir", o.imagesDir),
		logger.String("base", base),
	)
	return nil
}

// RootHandler serves the landing page.
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP handles GET / requests.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS(), "index.html")
}
