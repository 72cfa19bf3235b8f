// SPDX-License-Identifier: EPL-2.0

// Package audio holds the streaming primitives the decoders and the
// playback engine are built from.
//
// Everything is a Source: a pull-based stream of interleaved float32
// samples in [-1, 1]. Decoders produce Sources, stages wrap them, and output
// devices drain them.
//
// A decoded asset is kept as a Buffer, which is never modified after
// construction. Each playback instance reads it through its own
// BufferReader, so one Buffer can feed any number of concurrent instances.
//
//	buf, err := audio.Decode(src)
//	r := buf.NewReader(loop)
//
// The stages used to render one instance, in order:
//
//   - Resampler converts to the device rate. NewPitchResampler also scales
//     playback speed, so pitch 2 halves the duration.
//   - ChannelMapper matches the device channel count (MonoMixer when
//     folding down to one channel).
//   - Fade ramps the amplitude linearly from 0 to 1; FadeInGain is the same
//     envelope as a function of elapsed time.
//   - Gain applies a constant volume.
//
// Registry maps file extensions to Decoders. Keys are case-insensitive.
//
// Stages are not safe for concurrent use; a Buffer is.
package audio
