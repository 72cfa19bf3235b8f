// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/utils"
)

// aiffReader is the part of aiff.Decoder the source reads from.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int

	pcm goaudio.IntBuffer
	eof bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) BufSize() int {
	if n := cap(s.pcm.Data); n > 0 {
		return n
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	if cap(s.pcm.Data) < len(dst) {
		s.pcm.Data = make([]int, len(dst))
		s.pcm.Format = s.dec.Format()
	}
	s.pcm.Data = s.pcm.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(&s.pcm)
	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
	case err != nil:
		return 0, fmt.Errorf("decoding aiff: %w", err)
	case n < len(dst):
		// the SSND chunk ended
		s.eof = true
	}

	for i, v := range s.pcm.Data[:n] {
		dst[i] = utils.IntToFloat32(v, s.bitDepth)
	}

	if s.eof {
		return n, io.EOF
	}
	return n, nil
}

// Decoder decodes big-endian AIFF PCM with github.com/go-audio/aiff.
// Non-seekable readers are buffered in memory first.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	if bits := dec.BitDepth; bits != 8 && bits != 16 && bits != 24 && bits != 32 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}

	f := dec.Format()
	if f == nil || f.NumChannels < 1 || f.SampleRate < 1 {
		return nil, ErrBadLayout
	}

	return &source{
		dec:        dec,
		sampleRate: f.SampleRate,
		channels:   f.NumChannels,
		bitDepth:   int(dec.BitDepth),
	}, nil
}
