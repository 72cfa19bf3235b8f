// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/playbx"
	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/formats/wav"
	"github.com/ik5/playbx/playback"
	"github.com/ik5/playbx/sink/memsink"
)

// renderStep is how much audio is mixed between two frames of the offline
// loop.
const renderStep = 10 * time.Millisecond

var errBadScript = errors.New("invalid script")

type renderFlags struct {
	script  string
	rate    int
	outRate int
	limit   time.Duration
}

func newRenderCommand(a *app) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <id> <out.wav>",
		Short: "Run a key script offline and write the mix as mono 16-bit WAV",
		Long: `Run a comma separated key script against an in-memory device and write
what it played to a WAV file. Items starting with "+" let time pass, for
example "6,+500ms,2,2".

` + keyHelp,
		Args: cobra.ExactArgs(2),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, args[0], args[1], flags)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&flags.script, "script", "1", "comma separated keys and +durations")
	f.IntVar(&flags.rate, "rate", 0, "mix sample rate (default audio.sample_rate)")
	f.IntVar(&flags.outRate, "out-rate", 0, "WAV sample rate (default --rate)")
	f.DurationVar(&flags.limit, "max", time.Minute, "stop rendering after this much audio")

	return cmd
}

func (a *app) render(cmd *cobra.Command, id, path string, flags renderFlags) error {
	rate := flags.rate
	if rate <= 0 {
		rate = a.cfg.Audio.SampleRate
	}
	outRate := flags.outRate
	if outRate <= 0 {
		outRate = rate
	}

	script, err := parseScript(flags.script)
	if err != nil {
		return err
	}

	lib, err := a.library()
	if err != nil {
		return err
	}

	sink := memsink.New(rate, 1, time.Unix(0, 0))
	a.onClose(sink.Close)

	engine, err := playbx.NewSource(cmd.Context(), lib, sink, id, a.engineOptions(playback.WithClock(sink))...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctrl := newController(engine, cmd.ErrOrStderr(), a.log.Named("keys"))
	defer ctrl.close()

	mix, err := renderScript(ctrl, sink, script, flags.limit)
	if err != nil {
		return err
	}

	buf, err := audio.NewBuffer(mix, rate, 1)
	if err != nil {
		return err
	}
	pcm, outRate, err := playbx.ResampleToMono16(buf.NewReader(false), outRate, 0)
	if err != nil {
		return err
	}

	if err := writeWAV(path, outRate, pcm); err != nil {
		return err
	}

	a.log.Info("rendered",
		zap.String("id", id),
		zap.String("out", path),
		zap.Duration("length", buf.Duration()),
		zap.Int("rate", outRate))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%v at %d Hz)\n", path, buf.Duration(), outRate)

	return nil
}

// scriptItem is either a key for the controller or a pause.
type scriptItem struct {
	key  string
	wait time.Duration
}

func parseScript(s string) ([]scriptItem, error) {
	var items []scriptItem

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(field, "+"); ok {
			d, err := time.ParseDuration(rest)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("%w: bad pause %q", errBadScript, field)
			}
			items = append(items, scriptItem{wait: d})
			continue
		}

		items = append(items, scriptItem{key: field})
	}

	return items, nil
}

// renderScript plays the script on ctrl and collects the sink's output
// until nothing is left playing or limit worth of audio has been mixed.
func renderScript(ctrl *controller, sink *memsink.Sink, script []scriptItem, limit time.Duration) ([]float32, error) {
	var (
		mixed time.Duration
		out   []float32
		chunk = make([]float32, audio.DurationToFrames(renderStep, sink.SampleRate())*sink.Channels())
	)

	step := func() error {
		n, err := sink.ReadSamples(chunk)
		out = append(out, chunk[:n]...)
		mixed += renderStep
		ctrl.tick()
		if err == io.EOF {
			return nil
		}
		return err
	}

	for _, item := range script {
		if item.wait > 0 {
			for until := mixed + item.wait; mixed < until && mixed < limit; {
				if err := step(); err != nil {
					return nil, err
				}
			}
			continue
		}

		quit, err := ctrl.do(item.key)
		if err != nil {
			return nil, err
		}
		if quit {
			return out, nil
		}
	}

	for ctrl.engine.Active() > 0 && mixed < limit {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func writeWAV(path string, rate int, pcm []int16) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return wav.WriteWAV16(f, rate, pcm)
}
