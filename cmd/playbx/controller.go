// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/playbx/playback"
)

var errUnknownKey = errors.New("unknown key")

const keyHelp = `keys:
  1  play detached
  2  play later (queued)
  3  fade in over 1s, then play detached
  4  pitch 2.0, then play detached
  5  pitch 0.5, then play detached
  6  play owned and print elapsed time until done
  s  stop the primary line
  q  quit`

// controller maps single-key commands to engine calls. Settings changed by
// keys 3-5 stick for later plays.
type controller struct {
	engine *playback.Engine
	out    io.Writer
	log    *zap.Logger

	// owned keeps the latest owned handle reachable; dropping it would stop
	// the sound.
	owned *playback.Handle
	stats bool
}

func newController(e *playback.Engine, out io.Writer, log *zap.Logger) *controller {
	return &controller{engine: e, out: out, log: log}
}

// do runs one command and reports whether it asked to quit.
func (c *controller) do(key string) (bool, error) {
	e := c.engine

	switch strings.TrimSpace(strings.ToLower(key)) {
	case "":
		return false, nil
	case "1":
		return false, c.detached()
	case "2":
		h, err := e.PlayLater()
		if err != nil {
			return false, err
		}
		c.log.Debug("queued", zap.Stringer("id", h.ID()), zap.Stringer("state", h.State()))
		return false, nil
	case "3":
		if err := e.SetFadeIn(time.Second); err != nil {
			return false, err
		}
		return false, c.detached()
	case "4":
		if err := e.SetPitch(2); err != nil {
			return false, err
		}
		return false, c.detached()
	case "5":
		if err := e.SetPitch(0.5); err != nil {
			return false, err
		}
		return false, c.detached()
	case "6":
		if c.owned != nil {
			_ = c.owned.Close()
		}
		h, err := e.Play()
		if err != nil {
			return false, err
		}
		c.owned = h
		c.stats = true
		return false, nil
	case "s":
		e.Stop()
		c.stats = false
		return false, nil
	case "q":
		return true, nil
	case "h", "?", "help":
		fmt.Fprintln(c.out, keyHelp)
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", errUnknownKey, key)
	}
}

func (c *controller) detached() error {
	_, err := c.engine.PlayDetached()
	return err
}

// tick is called once per frame.
func (c *controller) tick() {
	c.engine.Update()

	if !c.stats || c.owned == nil {
		return
	}

	if c.owned.Playing() {
		fmt.Fprintf(c.out, "Elapsed time: %v\n", c.owned.Elapsed())
		return
	}

	fmt.Fprintf(c.out, "Done after %v (%s)\n", c.owned.Elapsed(), c.owned.State())
	c.stats = false
}

// close stops the owned instance, if any.
func (c *controller) close() {
	if c.owned != nil {
		_ = c.owned.Close()
		c.owned = nil
	}
}
