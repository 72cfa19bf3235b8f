// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// # Decoding
//
// Decoder implements audio.Decoder and is registered by
// playbx.DefaultRegistry for the "ogg" and "oga" extensions:
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if errors.Is(err, vorbis.ErrNotOggVorbis) {
//		// not a Vorbis stream
//	}
//
// The channel layout and sample rate are those of the stream. oggvorbis
// produces float32 samples already, so they are passed through without
// conversion. Decoding is streamed: nothing past the headers is read
// until ReadSamples is called.
//
// # Reads
//
// ReadSamples fills whole frames and returns the number of samples
// written. A buffer that does not hold whole frames is rejected with
// audio.ErrInvalidDstSize. The end of the stream is io.EOF, possibly
// together with the last samples; later reads return io.EOF alone.
//
// # Errors
//
// Decode returns ErrNotOggVorbis when the Ogg container or the Vorbis
// identification header is missing, wrapping the cause from oggvorbis.
// Errors during decoding are wrapped with the "decoding vorbis" prefix.
package vorbis
