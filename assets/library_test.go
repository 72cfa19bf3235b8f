// SPDX-License-Identifier: EPL-2.0

package assets_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ik5/playbx/assets"
	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/formats/wav"
	"github.com/ik5/playbx/loading"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wavBytes encodes frames samples of a constant mono signal.
func wavBytes(t *testing.T, rate, frames int) []byte {
	t.Helper()

	pcm := make([]int16, frames)
	for i := range pcm {
		pcm[i] = 8192
	}

	var b bytes.Buffer
	require.NoError(t, wav.WriteWAV16(&b, rate, pcm))

	return b.Bytes()
}

func registry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	return reg
}

func TestDecodeCaches(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"sfx/tone.wav": {Data: wavBytes(t, 8000, 800)}}
	lib := assets.NewLibrary(assets.FSOpener(fsys), assets.WithRegistry(registry()))

	assert.False(t, lib.Cached("sfx/tone.wav"))

	buf, err := lib.Decode(context.Background(), "sfx/tone.wav")
	require.NoError(t, err)
	assert.Equal(t, 8000, buf.SampleRate())
	assert.Equal(t, 1, buf.Channels())
	assert.Equal(t, 800, buf.Frames())
	assert.Equal(t, 100*time.Millisecond, buf.Duration())
	assert.InDelta(t, 0.25, buf.Sample(10, 0), 1e-3)

	assert.True(t, lib.Cached("sfx/tone.wav"))
	assert.Equal(t, 1, lib.Len())

	again, err := lib.Decode(context.Background(), "sfx/tone.wav")
	require.NoError(t, err)
	assert.Same(t, buf, again)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"tone.wav":    {Data: wavBytes(t, 8000, 10)},
		"garbage.wav": {Data: []byte("definitely not riff")},
	}
	lib := assets.NewLibrary(assets.FSOpener(fsys), assets.WithRegistry(registry()))
	ctx := context.Background()

	_, err := lib.Decode(ctx, "missing.wav")
	require.ErrorIs(t, err, assets.ErrNotFound)

	_, err = lib.Decode(ctx, "tone.flac")
	require.ErrorIs(t, err, assets.ErrUnknownFormat)

	_, err = lib.Decode(ctx, "")
	require.ErrorIs(t, err, assets.ErrEmptyID)

	_, err = lib.Decode(ctx, "garbage.wav")
	require.Error(t, err)
	require.NotErrorIs(t, err, assets.ErrNotFound)
	assert.False(t, lib.Cached("garbage.wav"))

	bare := assets.NewLibrary(assets.FSOpener(fsys))
	_, err = bare.Decode(ctx, "tone.wav")
	require.ErrorIs(t, err, assets.ErrUnknownFormat)
}

func TestDecodeCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	data := wavBytes(t, 8000, 10)
	opener := assets.OpenerFunc(func(string) (io.ReadCloser, error) {
		<-release
		return io.NopCloser(bytes.NewReader(data)), nil
	})
	lib := assets.NewLibrary(opener, assets.WithRegistry(registry()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.Decode(ctx, "tone.wav")
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool { return lib.Cached("tone.wav") }, 2*time.Second, time.Millisecond)
}

func TestConcurrentDecodeOpensOnce(t *testing.T) {
	t.Parallel()

	var opens atomic.Int32
	release := make(chan struct{})
	data := wavBytes(t, 8000, 100)
	opener := assets.OpenerFunc(func(string) (io.ReadCloser, error) {
		opens.Add(1)
		<-release
		return io.NopCloser(bytes.NewReader(data)), nil
	})
	lib := assets.NewLibrary(opener, assets.WithRegistry(registry()))

	const callers = 8
	results := make([]*audio.Buffer, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := lib.Decode(context.Background(), "tone.wav")
			assert.NoError(t, err)
			results[i] = buf
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for _, buf := range results {
		assert.Same(t, results[0], buf)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"tone.wav": {Data: wavBytes(t, 8000, 80)}}
	lib := assets.NewLibrary(assets.FSOpener(fsys), assets.WithRegistry(registry()))

	l := lib.Load(context.Background(), "tone.wav")
	status, err := l.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, loading.StatusReady, status)

	buf, ok := l.Result()
	require.True(t, ok)
	assert.Equal(t, 80, buf.Frames())

	cached := lib.Load(context.Background(), "tone.wav")
	assert.Equal(t, loading.StatusReady, cached.Status(), "cache hits resolve immediately")

	failed := lib.Load(context.Background(), "missing.wav")
	status, err = failed.Wait(context.Background())
	assert.Equal(t, loading.StatusFailed, status)
	require.ErrorIs(t, err, loading.ErrLoad)
	require.ErrorIs(t, err, assets.ErrNotFound)
}

func TestEvictAndPurge(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.wav": {Data: wavBytes(t, 8000, 10)},
		"b.wav": {Data: wavBytes(t, 8000, 10)},
	}
	lib := assets.NewLibrary(assets.FSOpener(fsys), assets.WithRegistry(registry()))
	ctx := context.Background()

	first, err := lib.Decode(ctx, "a.wav")
	require.NoError(t, err)
	_, err = lib.Decode(ctx, "b.wav")
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	lib.Evict("a.wav")
	lib.Evict("never-loaded.wav")
	assert.False(t, lib.Cached("a.wav"))
	assert.True(t, lib.Cached("b.wav"))

	second, err := lib.Decode(ctx, "a.wav")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Frames(), second.Frames())

	lib.Purge()
	assert.Equal(t, 0, lib.Len())
}

func TestCacheTTL(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"tone.wav": {Data: wavBytes(t, 8000, 10)}}
	lib := assets.NewLibrary(assets.FSOpener(fsys),
		assets.WithRegistry(registry()),
		assets.WithCacheTTL(20*time.Millisecond))

	_, err := lib.Decode(context.Background(), "tone.wav")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !lib.Cached("tone.wav") }, 2*time.Second, 5*time.Millisecond)
}

func TestWatcherEvictsChangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := filepath.Join(dir, "tone.wav")
	require.NoError(t, os.WriteFile(name, wavBytes(t, 8000, 10), 0o600))

	lib := assets.NewLibrary(assets.DirOpener(dir), assets.WithRegistry(registry()))

	_, err := lib.Decode(context.Background(), "tone.wav")
	require.NoError(t, err)

	w, err := lib.Watch(dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, w.Close()) })

	require.NoError(t, os.WriteFile(name, wavBytes(t, 8000, 20), 0o600))
	require.Eventually(t, func() bool { return !lib.Cached("tone.wav") }, 5*time.Second, 10*time.Millisecond)

	buf, err := lib.Decode(context.Background(), "tone.wav")
	require.NoError(t, err)
	assert.Equal(t, 20, buf.Frames())
}

func TestDirOpenerRejectsEscapes(t *testing.T) {
	t.Parallel()

	lib := assets.NewLibrary(assets.DirOpener(t.TempDir()), assets.WithRegistry(registry()))

	_, err := lib.Decode(context.Background(), "../outside.wav")
	require.ErrorIs(t, err, assets.ErrNotFound)
}
