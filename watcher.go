package modkit

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ManifestWatcher watches a modules root for changes to manifest and config
// files and invokes a callback with the affected path. The module registry
// itself is immutable after bootstrap, so the watcher performs no reload;
// it exists so operators can be told a restart is needed to pick up module
// changes.
type ManifestWatcher struct {
	root     string
	logger   Logger
	onChange func(path string)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManifestWatcher creates a watcher over the given modules root.
// onChange is invoked from the watcher goroutine for every manifest or
// config file created, written, renamed, or removed.
func NewManifestWatcher(root string, logger Logger, onChange func(path string)) *ManifestWatcher {
	return &ManifestWatcher{
		root:     root,
		logger:   logger,
		onChange: onChange,
	}
}

// Start begins watching the modules root and all its subdirectories. It
// returns once watches are established; events are delivered on a
// background goroutine until Stop is called or ctx is cancelled.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return ErrWatcherAlreadyStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
	if err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})

	go w.run(ctx, watcher, w.done)

	w.logger.Info("Watching modules root for manifest changes", "root", w.root)
	return nil
}

func (w *ManifestWatcher) run(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// New subdirectories need their own watch to see files created
			// inside them later.
			if event.Has(fsnotify.Create) {
				if dirExists(event.Name) {
					if err := watcher.Add(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !isModuleFile(event.Name) {
				continue
			}
			w.logger.Debug("Module file changed", "path", event.Name, "op", event.Op.String())
			if w.onChange != nil {
				w.onChange(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Manifest watcher error", "error", err)
		}
	}
}

// Stop stops watching and releases the underlying watcher.
func (w *ManifestWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return ErrWatcherNotStarted
	}

	close(w.done)
	err := w.watcher.Close()
	w.watcher = nil
	w.done = nil
	return err
}

// isModuleFile reports whether path names a manifest or config file the
// discovery process would read.
func isModuleFile(path string) bool {
	base := filepath.Base(path)
	return slices.Contains(manifestFileNames, base) || slices.Contains(legacyConfigFileNames, base)
}
