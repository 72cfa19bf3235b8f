// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/playbx/utils"
)

// lowPassAlpha puts the filter's cutoff roughly at the destination Nyquist
// frequency.
const lowPassAlpha = 0.5

// Resampler converts src to another sample rate with Catmull-Rom
// interpolation, optionally playing it faster or slower by a pitch factor.
// When source frames are consumed faster than output frames are produced a
// one-pole low-pass filter is applied to the source.
type Resampler struct {
	src      Source
	rate     int
	ratio    float64 // source frames per output frame
	channels int

	// source frames around the read position: t-1, t, t+1, t+2. Past the
	// end of the source the last frame is repeated and ok is false.
	win  [4][]float32
	ok   [4]bool
	frac float64 // position between win[1] and win[2]

	one    []float32 // single frame read buffer
	primed bool
	done   bool // src reported io.EOF

	lowPass bool
	state   []float32
}

// NewResampler converts src to dstRate without changing its speed.
func NewResampler(src Source, dstRate int) *Resampler {
	return newResampler(src, dstRate, 1)
}

// NewPitchResampler converts src to dstRate while playing it pitch times
// faster: 2 halves the duration and raises it an octave, 0.5 doubles the
// duration and lowers it an octave.
func NewPitchResampler(src Source, dstRate int, pitch float64) (*Resampler, error) {
	if pitch <= 0 || math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		return nil, ErrInvalidPitch
	}
	if dstRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	return newResampler(src, dstRate, pitch), nil
}

func newResampler(src Source, dstRate int, pitch float64) *Resampler {
	ch := src.Channels()
	ratio := float64(src.SampleRate()) * pitch / float64(dstRate)

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		ratio:    ratio,
		channels: ch,
		one:      make([]float32, ch),
		lowPass:  ratio > 1,
		state:    make([]float32, ch),
	}
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// Ratio reports how many source frames are consumed per output frame.
func (r *Resampler) Ratio() float64 { return r.ratio }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampled source: %w", err)
	}
	return nil
}

// read pulls one source frame into frame and reports whether it got one.
// A source that stops producing frames is treated as finished.
func (r *Resampler) read(frame []float32) (bool, error) {
	if r.done {
		return false, nil
	}

	n, err := r.src.ReadSamples(r.one)
	got := n > 0
	if got {
		copy(frame, r.one[:n])
		r.filter(frame)
	}

	switch {
	case errors.Is(err, io.EOF), err == nil && !got:
		r.done = true
	case err != nil:
		return got, fmt.Errorf("resampling: %w", err)
	}

	return got, nil
}

func (r *Resampler) filter(frame []float32) {
	if !r.lowPass {
		return
	}
	for c, x := range frame {
		frame[c] = lowPassAlpha*x + (1-lowPassAlpha)*r.state[c]
		r.state[c] = frame[c]
	}
}

// fill reads win[i], holding the previous frame once the source has ended.
func (r *Resampler) fill(i int) error {
	got, err := r.read(r.win[i])
	if err != nil {
		return err
	}
	r.ok[i] = got
	if !got {
		copy(r.win[i], r.win[i-1])
	}
	return nil
}

// prime fills the window on first use. The first frame is repeated as its
// own predecessor so output starts on it.
func (r *Resampler) prime() error {
	n, err := r.src.ReadSamples(r.one)
	switch {
	case n == 0 && (err == nil || errors.Is(err, io.EOF)):
		r.done = true
		return io.EOF
	case errors.Is(err, io.EOF):
		r.done = true
	case err != nil:
		return fmt.Errorf("resampling: %w", err)
	}

	copy(r.win[1], r.one[:n])
	if r.lowPass {
		copy(r.state, r.win[1])
	}
	copy(r.win[0], r.win[1])
	r.ok[0], r.ok[1] = true, true

	for i := 2; i < len(r.win); i++ {
		if err := r.fill(i); err != nil {
			return err
		}
	}
	r.primed = true

	return nil
}

// advance slides the window forward by one source frame. It reports io.EOF
// once the last source frame has left the read position.
func (r *Resampler) advance() error {
	r.win[0], r.win[1], r.win[2], r.win[3] = r.win[1], r.win[2], r.win[3], r.win[0]
	r.ok[0], r.ok[1], r.ok[2] = r.ok[1], r.ok[2], r.ok[3]

	if err := r.fill(3); err != nil {
		return err
	}
	if !r.ok[1] {
		return io.EOF
	}

	return nil
}

// ReadSamples produces output at the destination rate. len(dst) must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	for f := range len(dst) / r.channels {
		for r.frac >= 1 {
			r.frac--
			if err := r.advance(); err != nil {
				return f * r.channels, err
			}
		}
		if !r.ok[1] {
			return f * r.channels, io.EOF
		}

		t := float32(r.frac)
		out := dst[f*r.channels : (f+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], t)
		}

		r.frac += r.ratio
	}

	return len(dst), nil
}
