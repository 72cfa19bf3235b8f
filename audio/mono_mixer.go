// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer folds every frame of src into one channel by averaging.
type MonoMixer struct {
	src   Source
	frame []float32 // interleaved source frames for one read
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{src: src}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("closing mixed source: %w", err)
	}
	return nil
}

// ReadSamples writes one averaged sample per source frame.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	ch := m.src.Channels()
	if ch == 1 || len(dst) == 0 {
		return m.src.ReadSamples(dst)
	}

	if need := len(dst) * ch; cap(m.frame) < need {
		m.frame = make([]float32, need)
	}
	in := m.frame[:len(dst)*ch]

	n, err := m.src.ReadSamples(in)
	frames := n / ch
	scale := 1 / float32(ch)

	for f := range frames {
		var sum float32
		for _, s := range in[f*ch : (f+1)*ch] {
			sum += s
		}
		dst[f] = sum * scale
	}

	return frames, err
}
