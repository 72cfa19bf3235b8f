// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMapper adapts src to a fixed output channel count. Output channel c
// takes source channel c modulo the source channel count, so mono is copied
// to every output channel and surplus source channels are dropped.
// Use MonoMixer to fold multi-channel audio into one channel instead.
type ChannelMapper struct {
	src      Source
	channels int
	tmp      []float32
}

// NewChannelMapper returns a Source with the requested channel count. When no
// conversion is needed src is returned as is.
func NewChannelMapper(src Source, channels int) (Source, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	switch {
	case src.Channels() == channels:
		return src, nil
	case channels == 1:
		return NewMonoMixer(src), nil
	}

	return &ChannelMapper{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}, nil
}

func (m *ChannelMapper) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMapper) Channels() int   { return m.channels }
func (m *ChannelMapper) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMapper) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	frames := len(dst) / m.channels
	srcCh := m.src.Channels()
	need := frames * srcCh
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	got := n / srcCh
	for f := range got {
		for c := range m.channels {
			dst[f*m.channels+c] = m.tmp[f*srcCh+c%srcCh]
		}
	}

	return got * m.channels, err
}
