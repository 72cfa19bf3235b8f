// SPDX-License-Identifier: EPL-2.0

// Package playbx plays decoded sound assets as concurrent, independently
// configured instances, and loads those assets without blocking the
// caller's frame loop.
//
// # Supported Formats
//
// DefaultRegistry wires every bundled decoder by file extension:
//   - WAV (PCM 8/16/24/32-bit) via formats/wav
//   - AIFF (PCM 8/16/24/32-bit) via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//
// # Quick Start
//
// Create an asset library and an output device, then request an engine in
// the background and poll it once per frame:
//
//	lib := assets.NewLibrary(assets.DirOpener("sounds"),
//		assets.WithRegistry(playbx.DefaultRegistry()))
//	sink, _ := otosink.New(otosink.Options{SampleRate: 48000, Channels: 2})
//
//	pending := playbx.NewSourceAsync(ctx, lib, sink, "click.wav")
//
//	for range ticker.C {
//		if status, _ := pending.Poll(); status == loading.StatusReady {
//			engine := *pending.ResultPtr()
//			engine.PlayDetached()
//		}
//	}
//
// Package playback documents instance lifetimes (owned, detached, queued),
// pitch, fade-in and repeat. Package loading documents the polling model.
//
// # Offline Processing
//
// ResampleToMono16 converts any audio.Source to 16-bit mono PCM, which
// wav.WriteWAV16 can store:
//
//	samples, rate, _ := playbx.ResampleToMono16(src, 8000, 4096)
//	wav.WriteWAV16(file, rate, samples)
//
// sink/memsink renders playback into memory instead of a device, so the
// same engine calls can produce a file.
package playbx
