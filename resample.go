// SPDX-License-Identifier: EPL-2.0

package playbx

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/utils"
)

const defaultReadSize = 4096

// ResampleToMono16 converts all of src to 16-bit mono PCM at targetRate and
// returns it with the rate it was produced at. readSize is how many samples
// are pulled per pass; zero or less uses a default.
//
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm, rate, err := playbx.ResampleToMono16(src, 8000, 0)
//
// Pipelines that need pitch or channel control are built from the audio
// package directly.
func ResampleToMono16(src audio.Source, targetRate, readSize int) ([]int16, int, error) {
	if targetRate <= 0 {
		return nil, 0, audio.ErrInvalidSampleRate
	}
	if readSize <= 0 {
		readSize = defaultReadSize
	}

	mono := audio.NewMonoMixer(audio.NewResampler(src, targetRate))
	chunk := make([]float32, readSize)
	out := make([]int16, 0, targetRate)

	for {
		n, err := mono.ReadSamples(chunk)
		for _, x := range chunk[:n] {
			out = append(out, utils.Float32ToInt16(x))
		}

		switch {
		case errors.Is(err, io.EOF):
			return out, targetRate, nil
		case err != nil:
			return nil, targetRate, fmt.Errorf("converting to mono 16-bit: %w", err)
		}
	}
}
