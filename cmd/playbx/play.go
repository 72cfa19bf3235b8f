// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/playbx"
	"github.com/ik5/playbx/loading"
	"github.com/ik5/playbx/playback"
)

func newPlayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id>",
		Short: "Load an asset and play it interactively",
		Long:  "Load an asset in the background and play it with single-key commands.\n\n" + keyHelp,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			return a.play(cmd, args[0])
		}),
	}
}

func (a *app) play(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	lib, err := a.library()
	if err != nil {
		return err
	}
	sink, err := a.sink()
	if err != nil {
		return err
	}

	pending := playbx.NewSourceAsync(ctx, lib, sink, id, a.engineOptions()...)
	defer pending.Discard()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "playbx> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer rl.Close()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go readLines(rl, lines, done)

	fmt.Fprintf(out, "loading %s...\n%s\n", id, keyHelp)

	ticker := time.NewTicker(a.cfg.Playback.TickInterval())
	defer ticker.Stop()

	var ctrl *controller
	defer func() {
		if ctrl != nil {
			ctrl.close()
			_ = ctrl.engine.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if ctrl == nil {
				if line == "q" {
					return nil
				}
				fmt.Fprintln(out, "still loading")
				continue
			}
			quit, err := ctrl.do(line)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				if errors.Is(err, playback.ErrDevice) {
					a.log.Error("playback failed", zap.Error(err))
				}
			}
			if quit {
				return nil
			}

		case <-ticker.C:
			if ctrl == nil {
				status, err := pending.Poll()
				switch status {
				case loading.StatusFailed:
					return err
				case loading.StatusReady:
					engine := *pending.ResultPtr()
					ctrl = newController(engine, out, a.log.Named("keys"))
					fmt.Fprintf(out, "%s ready: %v\n", id, engine.Duration())
				}
				continue
			}
			ctrl.tick()
		}
	}
}

// terminal is the part of readline.Instance the key loop reads from.
type terminal interface {
	Readline() (string, error)
}

// readLines forwards terminal lines until the terminal is closed or done is
// closed. Ctrl-C and Ctrl-D read as quit.
func readLines(term terminal, lines chan<- string, done <-chan struct{}) {
	defer close(lines)

	for {
		line, err := term.Readline()
		quit := errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF)
		if quit {
			line = "q"
		} else if err != nil {
			return
		}

		select {
		case lines <- line:
		case <-done:
			return
		}
		if quit {
			return
		}
	}
}
