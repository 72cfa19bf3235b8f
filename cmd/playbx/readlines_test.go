// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// scriptedTerminal returns its lines in order, then end forever.
type scriptedTerminal struct {
	lines []string
	end   error
}

func (s *scriptedTerminal) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", s.end
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func collect(t *testing.T, lines <-chan string) []string {
	t.Helper()

	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return got
			}
			got = append(got, line)
		case <-timeout:
			t.Fatalf("lines not closed, got %q so far", got)
		}
	}
}

func TestReadLinesMapsInterruptToQuit(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	for _, end := range []error{readline.ErrInterrupt, io.EOF} {
		lines := make(chan string)
		done := make(chan struct{})
		go readLines(&scriptedTerminal{lines: []string{"1", "2"}, end: end}, lines, done)

		assert.Equal(t, []string{"1", "2", "q"}, collect(t, lines), "end %v", end)
		close(done)
	}
}

func TestReadLinesStopsOnOtherErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go readLines(&scriptedTerminal{lines: []string{"s"}, end: errors.New("tty gone")}, lines, done)

	assert.Equal(t, []string{"s"}, collect(t, lines))
}

func TestReadLinesExitsWhenNobodyListens(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	lines := make(chan string)
	done := make(chan struct{})
	finished := make(chan struct{})

	close(done)
	go func() {
		defer close(finished)
		readLines(&scriptedTerminal{end: io.EOF}, lines, done)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		require.FailNow(t, "readLines blocked after the key loop returned")
	}

	_, ok := <-lines
	assert.False(t, ok)
}
