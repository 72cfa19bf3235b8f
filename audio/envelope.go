// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// FadeInGain is the linear fade-in envelope: 0 at elapsed zero, rising to 1
// at elapsed == d. A non-positive d means no fade.
func FadeInGain(elapsed, d time.Duration) float32 {
	if d <= 0 || elapsed >= d {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float32(float64(elapsed) / float64(d))
}

// Fade ramps the amplitude of src linearly from silence to full volume over
// the first frames of output. If src ends before the ramp does, the ramp is
// simply never completed.
type Fade struct {
	src    Source
	length int // ramp length in frames
	frame  int // frames emitted so far
}

func NewFade(src Source, d time.Duration) *Fade {
	return &Fade{
		src:    src,
		length: DurationToFrames(d, src.SampleRate()),
	}
}

func (f *Fade) SampleRate() int { return f.src.SampleRate() }
func (f *Fade) Channels() int   { return f.src.Channels() }
func (f *Fade) BufSize() int    { return f.src.BufSize() }

func (f *Fade) Close() error {
	if err := f.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Gain reports the multiplier applied to the next frame.
func (f *Fade) Gain() float32 {
	if f.frame >= f.length {
		return 1
	}
	return float32(f.frame) / float32(f.length)
}

func (f *Fade) ReadSamples(dst []float32) (int, error) {
	n, err := f.src.ReadSamples(dst)
	if f.frame >= f.length {
		return n, err
	}

	ch := f.src.Channels()
	for i := 0; i+ch <= n; i += ch {
		g := f.Gain()
		for c := range ch {
			dst[i+c] *= g
		}
		f.frame++
	}

	return n, err
}

// Gain scales src by a constant volume.
type Gain struct {
	src    Source
	volume float32
}

func NewGain(src Source, volume float32) *Gain {
	return &Gain{src: src, volume: volume}
}

func (g *Gain) SampleRate() int { return g.src.SampleRate() }
func (g *Gain) Channels() int   { return g.src.Channels() }
func (g *Gain) BufSize() int    { return g.src.BufSize() }

func (g *Gain) Close() error {
	if err := g.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (g *Gain) ReadSamples(dst []float32) (int, error) {
	n, err := g.src.ReadSamples(dst)
	if g.volume == 1 {
		return n, err
	}
	for i := range n {
		dst[i] *= g.volume
	}
	return n, err
}
