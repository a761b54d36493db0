package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher invalidates FileReader entries when watched files change
type Watcher struct {
	fsw    *fsnotify.Watcher
	reader *FileReader
	log    *logrus.Logger

	mu       sync.RWMutex
	onChange []func(path string)
}

// NewWatcher creates a watcher feeding reader
func NewWatcher(reader *FileReader, log *logrus.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	return &Watcher{fsw: fsw, reader: reader, log: log}, nil
}

// OnChange registers fn to run after each change is processed
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// AddTree watches root and every directory below it
func (w *Watcher) AddTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("File watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.reader.Invalidate(event.Name)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.AddTree(event.Name); err != nil {
				w.log.WithError(err).Warnf("Failed to watch %s", event.Name)
			}
		}
	}
	w.log.WithField("path", event.Name).Debugf("File changed (%s)", event.Op)

	w.mu.RLock()
	callbacks := append([]func(string){}, w.onChange...)
	w.mu.RUnlock()
	for _, fn := range callbacks {
		fn(event.Name)
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
