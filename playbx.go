// SPDX-License-Identifier: EPL-2.0

package playbx

import (
	"context"
	"fmt"

	"github.com/ik5/playbx/assets"
	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/formats/aiff"
	"github.com/ik5/playbx/formats/mp3"
	"github.com/ik5/playbx/formats/vorbis"
	"github.com/ik5/playbx/formats/wav"
	"github.com/ik5/playbx/loading"
	"github.com/ik5/playbx/playback"
)

// DefaultRegistry returns a registry with every bundled decoder, keyed by
// the file extensions they handle.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()

	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})

	return reg
}

// NewSource decodes id through lib and returns an engine playing it on sink.
func NewSource(ctx context.Context, lib *assets.Library, sink playback.Sink, id string, opts ...playback.Option) (*playback.Engine, error) {
	buf, err := lib.Decode(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := playback.New(buf, sink, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine for %q: %w", id, err)
	}

	return e, nil
}

// NewSourceAsync starts NewSource in the background. The result is polled
// from the owner's frame loop; failures carry loading.ErrLoad.
func NewSourceAsync(ctx context.Context, lib *assets.Library, sink playback.Sink, id string, opts ...playback.Option) *loading.Loading[*playback.Engine] {
	return loading.Request(ctx, func(ctx context.Context) (*playback.Engine, error) {
		return NewSource(ctx, lib, sink, id, opts...)
	})
}
