// SPDX-License-Identifier: EPL-2.0

// Package assets decodes audio assets by id and keeps the decoded buffers
// in memory so every engine playing the same sound shares one copy.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/loading"
)

// Library decodes assets through an Opener and a decoder Registry. Decoded
// buffers are cached by id; concurrent requests for the same id share one
// decode. A Library is safe for concurrent use.
type Library struct {
	opener Opener
	reg    *audio.Registry
	log    *zap.Logger
	ttl    time.Duration

	cache *cache.Cache
	group singleflight.Group
}

type Option func(*Library)

// WithRegistry sets the decoders used to read assets, keyed by file
// extension. Without one every id fails with ErrUnknownFormat.
func WithRegistry(reg *audio.Registry) Option {
	return func(l *Library) {
		if reg != nil {
			l.reg = reg
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Library) {
		if log != nil {
			l.log = log
		}
	}
}

// WithCacheTTL expires decoded buffers ttl after they were cached. Zero, the
// default, keeps them until evicted.
func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Library) { l.ttl = ttl }
}

func NewLibrary(opener Opener, opts ...Option) *Library {
	l := &Library{
		opener: opener,
		reg:    audio.NewRegistry(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	ttl := l.ttl
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	// no janitor: expired entries are dropped on misses
	l.cache = cache.New(ttl, 0)

	return l
}

// Registry returns the decoders in use.
func (l *Library) Registry() *audio.Registry { return l.reg }

// Decode returns the decoded buffer for id, decoding it on a cache miss.
// If ctx ends first Decode returns its error; a decode already underway
// still completes and is cached.
func (l *Library) Decode(ctx context.Context, id string) (*audio.Buffer, error) {
	if buf, ok := l.get(id); ok {
		return buf, nil
	}

	ch := l.group.DoChan(id, func() (any, error) {
		return l.decode(id)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("decoding %q: %w", id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.log.Debug("asset decode shared", zap.String("id", id))
		}
		return res.Val.(*audio.Buffer), nil
	}
}

// Load starts decoding id in the background. A cached asset yields an
// already ready Loading.
func (l *Library) Load(ctx context.Context, id string) *loading.Loading[*audio.Buffer] {
	if buf, ok := l.get(id); ok {
		return loading.Ready(buf)
	}

	return loading.Request(ctx, func(ctx context.Context) (*audio.Buffer, error) {
		return l.Decode(ctx, id)
	})
}

// Cached reports whether id is decoded and in the cache.
func (l *Library) Cached(id string) bool {
	_, ok := l.cache.Get(id)
	return ok
}

// Len is the number of cached assets, expired ones included until they are
// dropped.
func (l *Library) Len() int { return l.cache.ItemCount() }

// Evict drops id from the cache. Engines already holding its buffer keep it.
func (l *Library) Evict(id string) {
	if _, ok := l.cache.Get(id); !ok {
		return
	}
	l.cache.Delete(id)
	l.log.Debug("asset evicted", zap.String("id", id))
}

// Purge drops every cached asset.
func (l *Library) Purge() {
	l.cache.Flush()
	l.log.Debug("asset cache purged")
}

func (l *Library) get(id string) (*audio.Buffer, bool) {
	v, ok := l.cache.Get(id)
	if !ok {
		return nil, false
	}

	l.log.Debug("asset cache hit", zap.String("id", id))
	return v.(*audio.Buffer), true
}

func (l *Library) decode(id string) (*audio.Buffer, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	ext := strings.TrimPrefix(path.Ext(id), ".")
	dec, ok := l.reg.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}

	start := time.Now()

	rc, err := l.opener.Open(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, fmt.Errorf("%w: %q: %w", ErrNotFound, id, err)
		}
		return nil, fmt.Errorf("opening %q: %w", id, err)
	}
	defer rc.Close()

	src, err := dec.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", id, err)
	}

	buf, err := audio.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", id, err)
	}

	l.cache.DeleteExpired()
	l.cache.Set(id, buf, cache.DefaultExpiration)

	l.log.Debug("asset decoded",
		zap.String("id", id),
		zap.Int("sample_rate", buf.SampleRate()),
		zap.Int("channels", buf.Channels()),
		zap.Duration("length", buf.Duration()),
		zap.Duration("took", time.Since(start)))

	return buf, nil
}
