// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/playbx"
	"github.com/ik5/playbx/assets"
	"github.com/ik5/playbx/config"
	"github.com/ik5/playbx/playback"
	"github.com/ik5/playbx/sink/beepsink"
	"github.com/ik5/playbx/sink/memsink"
	"github.com/ik5/playbx/sink/otosink"
)

// app carries what every subcommand shares once the root command has
// loaded the configuration.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	closers []func() error
}

func (a *app) onClose(fn func() error) { a.closers = append(a.closers, fn) }

// close runs the registered closers in reverse order.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil

	return errors.Join(errs...)
}

func (a *app) library() (*assets.Library, error) {
	lib := assets.NewLibrary(assets.DirOpener(a.cfg.Assets.Root),
		assets.WithRegistry(playbx.DefaultRegistry()),
		assets.WithLogger(a.log.Named("assets")),
		assets.WithCacheTTL(a.cfg.Assets.CacheTTL))

	if a.cfg.Assets.Watch {
		w, err := lib.Watch(a.cfg.Assets.Root)
		if err != nil {
			return nil, err
		}
		a.onClose(w.Close)
	}

	return lib, nil
}

// sink opens the configured output device. The null backend is a memory
// sink nobody renders, so playback runs silently on the wall clock.
func (a *app) sink() (playback.Sink, error) {
	out := a.cfg.Audio

	switch out.Backend {
	case "oto":
		s, err := otosink.New(otosink.Options{
			SampleRate: out.SampleRate,
			Channels:   out.Channels,
			Buffer:     out.Buffer,
			Logger:     a.log.Named("oto"),
		})
		if err != nil {
			return nil, err
		}
		a.onClose(s.Close)
		return s, nil

	case "beep":
		if out.Channels != 2 {
			a.log.Warn("beep backend is stereo only", zap.Int("channels", out.Channels))
		}
		s, err := beepsink.New(out.SampleRate, out.Buffer, a.log.Named("beep"))
		if err != nil {
			return nil, err
		}
		a.onClose(s.Close)
		return s, nil

	case "null":
		s := memsink.New(out.SampleRate, out.Channels, time.Now())
		a.onClose(s.Close)
		return s, nil

	default:
		return nil, fmt.Errorf("%w: audio.backend %q", config.ErrInvalidConfig, out.Backend)
	}
}

// engineOptions are the playback options derived from the configuration.
func (a *app) engineOptions(extra ...playback.Option) []playback.Option {
	opts := []playback.Option{
		playback.WithLogger(a.log.Named("playback")),
		playback.WithRestart(a.cfg.Playback.AllowRestart),
		playback.WithSettings(a.cfg.Playback.Settings()),
	}
	return append(opts, extra...)
}
