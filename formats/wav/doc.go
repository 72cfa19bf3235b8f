// SPDX-License-Identifier: EPL-2.0

// Package wav decodes RIFF/WAVE files and writes mono 16-bit WAV.
//
// Decoding is done by github.com/go-audio/wav; the package adapts its
// integer PCM buffers to audio.Source.
//
// # Supported Formats
//
// The decoder accepts:
//   - integer PCM at 8 (unsigned), 16, 24 and 32 bits
//   - WAVE_FORMAT_EXTENSIBLE headers carrying integer PCM
//   - any channel count and sample rate the header declares
//   - extra chunks (LIST, JUNK, fact, ...) before or after the data chunk
//
// Float and compressed WAV are rejected.
//
// # Decoding
//
// Decoder implements audio.Decoder and is what playbx.DefaultRegistry
// registers for the "wav" and "wave" extensions:
//
//	f, _ := os.Open("click.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	buf, err := audio.Decode(src)
//
// Samples come out interleaved as float32 in [-1, 1]. A read that reaches
// the end of the data chunk returns the remaining samples together with
// io.EOF, and every read after it returns io.EOF alone.
//
// go-audio needs to seek to the data chunk, so input that is not an
// io.ReadSeeker is read into memory first.
//
// # Writing
//
// WriteWAV16 writes a complete mono 16-bit PCM file in one call. It is the
// output path of the render command, fed by playbx.ResampleToMono16:
//
//	pcm, rate, err := playbx.ResampleToMono16(src, 8000, 0)
//	if err != nil {
//		return err
//	}
//	err = wav.WriteWAV16(out, rate, pcm)
//
// The 44 byte header is built in place and samples go through a buffered
// writer, so the call allocates a constant amount regardless of length.
//
// # Errors
//
// Decode classifies failures with sentinels that work with errors.Is:
//   - ErrNotWavFile: no RIFF/WAVE signature
//   - ErrUnsupportedWavLayout: the fmt chunk could not be parsed
//   - ErrNotPCM: the audio format is not integer PCM
//   - ErrUnsupportedBitDepth: a sample size other than 8, 16, 24 or 32 bits
//   - ErrUnsupportedWavChunks: the data chunk could not be reached
//
// Errors from the underlying reader are wrapped, not replaced.
package wav
