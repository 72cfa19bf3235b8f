// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/ik5/playbx/internal/audiotest"
)

func TestNewBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		samples  []float32
		rate     int
		channels int
		want     error
	}{
		{"stereo", make([]float32, 8), 8000, 2, nil},
		{"empty", nil, 8000, 1, nil},
		{"zero rate", make([]float32, 8), 0, 2, ErrInvalidSampleRate},
		{"zero channels", make([]float32, 8), 8000, 0, ErrInvalidChannels},
		{"partial frame", make([]float32, 7), 8000, 2, ErrInvalidBufferLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBuffer(tt.samples, tt.rate, tt.channels)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewBuffer() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(1000, 2, 1500, func(frame, ch int) float32 {
		return float32(frame%10) / 10 * float32(1-2*ch)
	})

	buf, err := Decode(src)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.SampleRate() != 1000 || buf.Channels() != 2 || buf.Frames() != 1500 {
		t.Errorf("Decode() = %d Hz / %d ch / %d frames, want 1000 / 2 / 1500",
			buf.SampleRate(), buf.Channels(), buf.Frames())
	}
	if got := buf.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
	if got := buf.Sample(13, 1); got != -0.3 {
		t.Errorf("Sample(13, 1) = %v, want -0.3", got)
	}
}

func TestDecode_SourceFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt frame")
	src := audiotest.NewSineSource(8000, 1, 8000, 440)
	src.FailAfter = 100
	src.Err = boom

	if _, err := Decode(src); !errors.Is(err, boom) {
		t.Errorf("Decode() error = %v, want %v", err, boom)
	}
}

// stalled never produces samples.
type stalled struct{ *audiotest.MockSource }

func (stalled) ReadSamples([]float32) (int, error) { return 0, nil }

func TestDecode_NoProgress(t *testing.T) {
	t.Parallel()

	src := stalled{audiotest.NewSilentSource(8000, 1, 10)}
	if _, err := Decode(src); !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("Decode() error = %v, want io.ErrNoProgress", err)
	}
}

func TestBufferReader(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer([]float32{1, -1, 2, -2, 3, -3}, 1000, 2)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("once", func(t *testing.T) {
		t.Parallel()

		r := buf.NewReader(false)
		dst := make([]float32, 4)

		n, err := r.ReadSamples(dst)
		if n != 4 || err != nil {
			t.Fatalf("first read = %d, %v; want 4, nil", n, err)
		}
		n, err = r.ReadSamples(dst)
		if n != 2 || !errors.Is(err, io.EOF) {
			t.Fatalf("second read = %d, %v; want 2, EOF", n, err)
		}
		if got := dst[:2]; !slices.Equal(got, []float32{3, -3}) {
			t.Errorf("second read = %v", got)
		}
		if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
			t.Errorf("odd read error = %v, want ErrInvalidDstSize", err)
		}
	})

	t.Run("loop", func(t *testing.T) {
		t.Parallel()

		r := buf.NewReader(true)
		dst := make([]float32, 10)

		n, err := r.ReadSamples(dst)
		if n != 10 || err != nil {
			t.Fatalf("ReadSamples() = %d, %v; want 10, nil", n, err)
		}
		want := []float32{1, -1, 2, -2, 3, -3, 1, -1, 2, -2}
		if !slices.Equal(dst, want) {
			t.Errorf("looped = %v, want %v", dst, want)
		}
		if r.Position() != 2 {
			t.Errorf("Position() = %d, want 2", r.Position())
		}
	})

	t.Run("seek", func(t *testing.T) {
		t.Parallel()

		r := buf.NewReader(false)
		r.Seek(2)
		dst := make([]float32, 2)
		if _, err := r.ReadSamples(dst); !errors.Is(err, io.EOF) || dst[0] != 3 {
			t.Errorf("read after Seek(2) = %v, %v", dst, err)
		}

		r.Seek(-5)
		if r.Position() != 0 {
			t.Errorf("Seek(-5) left position at %d", r.Position())
		}
		r.Seek(99)
		if r.Position() != 3 {
			t.Errorf("Seek(99) left position at %d", r.Position())
		}
	})

	t.Run("shared", func(t *testing.T) {
		t.Parallel()

		a, b := buf.NewReader(false), buf.NewReader(false)
		got := drain(t, a, 2)
		if !slices.Equal(got, drain(t, b, 6)) {
			t.Error("two readers of one buffer disagree")
		}
	})
}

func TestFrameDurationConversion(t *testing.T) {
	t.Parallel()

	if got := FramesToDuration(22050, 44100); got != 500*time.Millisecond {
		t.Errorf("FramesToDuration(22050, 44100) = %v", got)
	}
	if got := DurationToFrames(250*time.Millisecond, 48000); got != 12000 {
		t.Errorf("DurationToFrames(250ms, 48000) = %d", got)
	}
	if FramesToDuration(10, 0) != 0 || DurationToFrames(-time.Second, 8000) != 0 {
		t.Error("degenerate conversions should be zero")
	}
}
