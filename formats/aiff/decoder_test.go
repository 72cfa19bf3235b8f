// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// fakeReader hands out fixed PCM. When eofWithData is set the last chunk
// comes with io.EOF, otherwise the end is a short read.
type fakeReader struct {
	samples     []int
	eofWithData bool
	err         error
}

func (f *fakeReader) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: 8000, NumChannels: 1}
}

func (f *fakeReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(f.samples) == 0 {
		return 0, io.EOF
	}

	n := copy(buf.Data, f.samples)
	f.samples = f.samples[n:]
	if len(f.samples) == 0 && f.eofWithData {
		return n, io.EOF
	}
	return n, nil
}

func drain(t *testing.T, s *source, size int) ([]float32, error) {
	t.Helper()

	var out []float32
	buf := make([]float32, size)
	for {
		n, err := s.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			return out, err
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	for _, eofWithData := range []bool{false, true} {
		s := &source{
			dec:        &fakeReader{samples: []int{0, 64, -64, -128, 127}, eofWithData: eofWithData},
			sampleRate: 8000,
			channels:   1,
			bitDepth:   8,
		}

		got, err := drain(t, s, 2)
		if !errors.Is(err, io.EOF) {
			t.Fatalf("eofWithData=%v: error = %v, want EOF", eofWithData, err)
		}
		want := []float32{0, 0.5, -0.5, -1, 127.0 / 128}
		if len(got) != len(want) {
			t.Fatalf("eofWithData=%v: got %v, want %v", eofWithData, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("eofWithData=%v: sample %d = %v, want %v", eofWithData, i, got[i], want[i])
			}
		}
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	s := &source{dec: &fakeReader{err: io.ErrUnexpectedEOF}, sampleRate: 8000, channels: 1, bitDepth: 16}

	if _, err := s.ReadSamples(make([]float32, 8)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want ErrUnexpectedEOF", err)
	}
	if n, err := s.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("empty read = %d, %v", n, err)
	}
}

func TestDecoder_Invalid(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not AIFF data"), []byte("RIFF\x00\x00\x00\x04WAVE")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); !errors.Is(err, ErrNotAiffFile) {
			t.Errorf("Decode(%q) error = %v, want ErrNotAiffFile", data, err)
		}
	}
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.aiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	pcm := []int{0, 16384, -16384, 8192, -8192, 0, 32767, -32768}
	enc := aiff.NewEncoder(f, 22050, 16, 2)
	if err := enc.Write(&goaudio.IntBuffer{
		Data:           pcm,
		Format:         &goaudio.Format{SampleRate: 22050, NumChannels: 2},
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	src, err := Decoder{}.Decode(in)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Errorf("format = %d Hz / %d ch, want 22050 / 2", src.SampleRate(), src.Channels())
	}

	got, err := drain(t, src.(*source), 4)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if len(got) != len(pcm) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(pcm))
	}
	for i, v := range pcm {
		if want := float32(v) / 32768; math.Abs(float64(got[i]-want)) > 1e-4 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}
