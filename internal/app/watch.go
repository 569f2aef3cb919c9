package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"masonry-gallery/internal/debounce"
	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/logging"
)

// FolderWatcher reports changes to the image files of one folder. Bursts
// of events (a copy of many files) are coalesced into one callback.
type FolderWatcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	log      *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFolderWatcher watches dir and calls onChange from a background
// goroutine once the folder has been quiet for delay.
func NewFolderWatcher(dir string, delay time.Duration, onChange func()) (*FolderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &FolderWatcher{
		dir:      dir,
		watcher:  w,
		debounce: debounce.New(delay, onChange),
		log:      logging.Named("watch"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (fw *FolderWatcher) Start() {
	go fw.watchLoop()
}

// Stop ends the watch and drops any pending callback.
func (fw *FolderWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopCh)
		fw.debounce.Stop()
		fw.watcher.Close()
	})
}

// Dir returns the watched folder.
func (fw *FolderWatcher) Dir() string {
	return fw.dir
}

func (fw *FolderWatcher) watchLoop() {
	for {
		select {
		case <-fw.stopCh:
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if relevant(ev) {
				fw.log.Debug("folder changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
				fw.debounce.Trigger()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", zap.String("dir", fw.dir), zap.Error(err))
		}
	}
}

// relevant reports whether ev can change the catalog.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
		return false
	}
	return gimage.IsSupportedFormat(ev.Name)
}
