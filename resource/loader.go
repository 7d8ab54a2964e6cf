// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/internal/cache"
	"github.com/gogpu/slidecanvas/internal/logging"
)

// Loader defaults.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxBytes   = 32 << 20
	DefaultWorkers    = 4
	DefaultCacheBytes = 256 << 20
	maxKeyLength      = 512
	maxCacheEntries   = 512
)

// Loader resolves an image source to decoded pixels. Load is called from
// background goroutines and must honor ctx cancellation.
type Loader interface {
	Load(ctx context.Context, source string) (*gg.ImageBuf, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, source string) (*gg.ImageBuf, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, source string) (*gg.ImageBuf, error) {
	return f(ctx, source)
}

// Options configures a DefaultLoader.
type Options struct {
	// Timeout bounds a single fetch and decode.
	Timeout time.Duration
	// MaxBytes caps the encoded size of a source.
	MaxBytes int64
	// Workers bounds concurrent fetch and decode work.
	Workers int
	// CacheBytes bounds decoded pixel memory held by the cache. Negative
	// disables caching.
	CacheBytes int64
	// BaseDir resolves relative file paths.
	BaseDir string
	// Client is used for http(s) sources. Nil uses a client with Timeout.
	Client *http.Client
	Logger *slog.Logger
	// OnLoad observes every completed load with its outcome.
	OnLoad func(scheme Scheme, err error, elapsed time.Duration)
}

// DefaultLoader fetches data:, http(s) and file sources, decodes them and
// caches the result.
type DefaultLoader struct {
	opts   Options
	client *http.Client
	sem    chan struct{}
	cache  *cache.Cache[*gg.ImageBuf]
	logger *slog.Logger
}

// NewLoader returns a DefaultLoader.
func NewLoader(opts Options) *DefaultLoader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CacheBytes == 0 {
		opts.CacheBytes = DefaultCacheBytes
	}
	l := &DefaultLoader{
		opts:   opts,
		client: opts.Client,
		sem:    make(chan struct{}, opts.Workers),
		logger: logging.Or(opts.Logger),
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.CacheBytes > 0 {
		l.cache = cache.New[*gg.ImageBuf](cache.Options{Entries: maxCacheEntries, Cost: opts.CacheBytes})
	}
	return l
}

// Load implements Loader. Failures are returned as *LoadError.
func (l *DefaultLoader) Load(ctx context.Context, source string) (*gg.ImageBuf, error) {
	if source == "" {
		return nil, &LoadError{Source: source, Err: ErrEmptySource}
	}
	if l.cache == nil {
		img, _, err := l.fetch(ctx, source)
		return img, err
	}
	// The shared fetch outlives any one caller; it is bounded by Timeout.
	shared := context.WithoutCancel(ctx)
	return l.cache.GetOrLoad(ctx, cacheKey(source), func() (*gg.ImageBuf, int64, error) {
		return l.fetch(shared, source)
	})
}

// CacheStats returns decoded image cache counters.
func (l *DefaultLoader) CacheStats() cache.Stats {
	if l.cache == nil {
		return cache.Stats{}
	}
	return l.cache.Stats()
}

// Purge drops all cached images.
func (l *DefaultLoader) Purge() {
	if l.cache != nil {
		l.cache.Clear()
	}
}

func (l *DefaultLoader) fetch(ctx context.Context, source string) (img *gg.ImageBuf, cost int64, err error) {
	scheme := Classify(source)
	start := time.Now()
	defer func() {
		if err != nil {
			err = &LoadError{Source: source, Err: err}
			l.logger.Warn("resource: load failed", "scheme", scheme, "source", shorten(source), "err", err)
		}
		if l.opts.OnLoad != nil {
			l.opts.OnLoad(scheme, err, time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	select {
	case l.sem <- struct{}{}:
		defer func() { <-l.sem }()
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	var data []byte
	switch scheme {
	case SchemeData:
		data, err = parseDataURI(source)
		if err == nil && int64(len(data)) > l.opts.MaxBytes {
			err = fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
		}
	case SchemeHTTP:
		data, err = fetchHTTP(ctx, l.client, source, l.opts.MaxBytes)
	case SchemeFile:
		data, err = readFile(source, l.opts.BaseDir, l.opts.MaxBytes)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedSource, shorten(source))
	}
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	img, format, err := DecodeBytes(data)
	if err != nil {
		return nil, 0, err
	}
	l.logger.Debug("resource: decoded",
		"scheme", scheme,
		"format", format,
		"width", img.Width(),
		"height", img.Height(),
		"elapsed", time.Since(start))
	return img, int64(img.ByteSize()), nil
}

// cacheKey keeps long sources (inline data URIs) from bloating the cache
// index.
func cacheKey(source string) string {
	if len(source) <= maxKeyLength {
		return source
	}
	sum := sha256.Sum256([]byte(source))
	return "sha256:" + hex.EncodeToString(sum[:])
}
