// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 streams with github.com/hajimehoshi/go-mp3.
//
// # Supported Formats
//
// MPEG-1 and MPEG-2 Layer III at the sample rates go-mp3 supports. ID3
// tags are skipped by go-mp3.
//
// # Channels
//
// go-mp3 always produces interleaved stereo 16-bit PCM, so every source
// from this package reports two channels. Mono files come out with the
// same signal on both sides; a playback engine on a mono device folds
// them back with audio.NewChannelMapper.
//
// # Decoding
//
// Decoder implements audio.Decoder and is registered by
// playbx.DefaultRegistry for the "mp3" extension:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	buf, err := audio.Decode(src)
//
// The stream is decoded on demand as ReadSamples is called. Samples are
// normalized to float32 in [-1, 1]. A trailing
// partial frame at the end of the stream is dropped. After io.EOF every
// read returns io.EOF.
//
// # Errors
//
// Decode returns ErrNotMP3File wrapping go-mp3's error when no frame
// header is found. Reader failures while decoding are wrapped with the
// "decoding mp3" prefix, and a buffer that does not hold whole stereo
// frames is rejected with audio.ErrInvalidDstSize.
package mp3
