// SPDX-License-Identifier: EPL-2.0

package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher evicts cached assets whose files change on disk. Only the watched
// directory itself is observed, not its subdirectories.
type Watcher struct {
	lib *Library
	dir string
	fsw *fsnotify.Watcher

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Watch starts evicting ids of files in dir as they are written, created,
// renamed or removed. Ids are paths relative to dir, as used with
// DirOpener(dir).
func (l *Library) Watch(dir string) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %q: %w", dir, err)
	}

	w := &Watcher{
		lib:  l,
		dir:  abs,
		fsw:  fsw,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()

	l.log.Info("watching assets", zap.String("dir", abs))

	return w, nil
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if id, ok := w.id(event.Name); ok {
				w.lib.Evict(id)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.lib.log.Warn("asset watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) id(name string) (string, bool) {
	rel, err := filepath.Rel(w.dir, name)
	if err != nil || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
