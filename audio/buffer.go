// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// maxEmptyReads bounds how many (0, nil) reads Decode tolerates before giving up.
const maxEmptyReads = 64

// Buffer is a fully decoded asset held in memory as interleaved float32
// samples. A Buffer is never modified after construction, so any number of
// readers may share it.
type Buffer struct {
	samples    []float32
	sampleRate int
	channels   int
}

// NewBuffer wraps samples without copying them. The caller must not modify
// samples afterwards.
func NewBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if len(samples)%channels != 0 {
		return nil, ErrInvalidBufferLength
	}

	return &Buffer{
		samples:    samples,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Decode drains src into a Buffer and closes it.
func Decode(src Source) (*Buffer, error) {
	defer src.Close()

	size := src.BufSize()
	if size <= 0 {
		size = 4096
	}
	if ch := src.Channels(); ch > 0 && size%ch != 0 {
		size += ch - size%ch
	}

	buf := make([]float32, size)
	samples := make([]float32, 0, size*4)
	empty := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
			empty = 0
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding samples: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
		}
	}

	if ch := src.Channels(); ch > 0 {
		samples = samples[:len(samples)-len(samples)%ch]
	}

	return NewBuffer(samples, src.SampleRate(), src.Channels())
}

func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Channels() int   { return b.channels }

// Frames is the number of sample frames (samples per channel).
func (b *Buffer) Frames() int { return len(b.samples) / b.channels }

// Duration is the playback length at the native sample rate.
func (b *Buffer) Duration() time.Duration {
	return FramesToDuration(b.Frames(), b.sampleRate)
}

// Sample returns the value of channel ch at frame.
func (b *Buffer) Sample(frame, ch int) float32 {
	return b.samples[frame*b.channels+ch]
}

// NewReader returns an independent Source over the buffer. With loop set the
// reader restarts at frame zero instead of reporting io.EOF.
func (b *Buffer) NewReader(loop bool) *BufferReader {
	return &BufferReader{buf: b, loop: loop}
}

// FramesToDuration converts a frame count at rate into wall time.
func FramesToDuration(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(rate))
}

// DurationToFrames converts wall time into a frame count at rate, rounding down.
func DurationToFrames(d time.Duration, rate int) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int(int64(d) * int64(rate) / int64(time.Second))
}

// BufferReader reads a shared Buffer. Each reader keeps its own position.
type BufferReader struct {
	buf  *Buffer
	pos  int // in samples
	loop bool
}

func (r *BufferReader) SampleRate() int { return r.buf.sampleRate }
func (r *BufferReader) Channels() int   { return r.buf.channels }
func (r *BufferReader) BufSize() int    { return 4096 }
func (r *BufferReader) Close() error    { return nil }

// Position reports the current frame.
func (r *BufferReader) Position() int { return r.pos / r.buf.channels }

// Seek moves to frame, clamped to the buffer bounds.
func (r *BufferReader) Seek(frame int) {
	frame = min(max(frame, 0), r.buf.Frames())
	r.pos = frame * r.buf.channels
}

func (r *BufferReader) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.buf.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	total := len(r.buf.samples)
	if total == 0 {
		return 0, io.EOF
	}

	written := 0
	for written < len(dst) {
		if r.pos >= total {
			if !r.loop {
				break
			}
			r.pos = 0
		}
		n := copy(dst[written:], r.buf.samples[r.pos:])
		r.pos += n
		written += n
	}

	if !r.loop && r.pos >= total {
		return written, io.EOF
	}

	return written, nil
}
