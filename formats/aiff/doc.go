// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// # Supported Formats
//
// The decoder accepts:
//   - big-endian integer PCM at 8, 16, 24 and 32 bits
//   - any channel count and sample rate the COMM chunk declares
//
// Compressed AIFF-C is rejected.
//
// # Decoding
//
// Decoder implements audio.Decoder and is registered by
// playbx.DefaultRegistry for the "aiff" and "aif" extensions:
//
//	f, _ := os.Open("bell.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//		// not AIFF, try another decoder
//	}
//
// Samples are normalized to float32 in [-1, 1] and interleaved. The end of
// the SSND chunk is reported as io.EOF together with the last samples;
// later reads return io.EOF alone. ReadSamples needs a buffer that holds
// whole frames and returns audio.ErrInvalidDstSize otherwise.
//
// go-audio seeks between chunks, so input that is not an io.ReadSeeker is
// read into memory first.
//
// # Errors
//
//   - ErrNotAiffFile: no FORM/AIFF signature
//   - ErrUnsupportedBitDepth: a sample size other than 8, 16, 24 or 32 bits
//   - ErrBadLayout: the COMM chunk declares no channels or no sample rate
//
// Read failures while decoding are wrapped with their cause.
package aiff
